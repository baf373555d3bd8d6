// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RegistryStore: DocumentRecord persistence keyed by content hash
//   - NotificationLog: Append-only event log
//   - KnowledgeStore: Extraction results keyed by content hash
//   - ProposalStore: Function and web-update proposals
//   - DocumentSource: Lists and watches candidate files
//   - DocumentParser / ParserRegistry: Turns raw files into pages, outline and tables
//   - VocabularyStore: Word lists for keyword tagging and query normalisation
//   - PostProcessorPipeline: Enriches extraction results (keywords, function potential)
//   - ArtifactWriter: Generated-artifact storage for approved code
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - WebSearcher: Executes confirmed web searches. Without it, search updates fail closed.
//   - Downloader: Executes confirmed downloads. Without it, downloads fail closed.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, parser, or connector package
package driven
