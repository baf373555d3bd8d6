// Package connectors provides the sources guidekit reads documents from.
//
// The filesystem connector lists candidate documents under a watch directory
// and reports file events through a debounced watcher. Download of remote
// documents lives in the web adapter; everything it fetches lands in the
// watch directory and flows through the filesystem connector like any other file.
package connectors
