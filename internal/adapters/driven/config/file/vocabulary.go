package file

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure VocabularyStore implements the interface.
var _ driven.VocabularyStore = (*VocabularyStore)(nil)

// VocabularyStore loads keyword vocabularies from user-editable files on disk.
// Vocabularies are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type VocabularyStore struct {
	mu       sync.RWMutex
	dir      string
	cache    map[string][]string
	initOnce sync.Once
	initErr  error
}

// defaultVocabularies are written out on first use and used when a file is missing.
var defaultVocabularies = map[string]string{
	driven.VocabularyClinicalTerms: `# One term per line. Multi-word terms are matched as phrases.
ablation
acute coronary syndrome
anticoagulation
antiplatelet
aortic stenosis
arrhythmia
atrial fibrillation
beta-blocker
bleeding
blood pressure
cardiomyopathy
cardiac arrest
catheterization
cholesterol
chronic coronary syndrome
diabetes
diagnosis
dyslipidaemia
echocardiography
ejection fraction
endocarditis
heart failure
hypertension
imaging
ischaemia
left ventricular
mitral regurgitation
mortality
myocardial infarction
myocarditis
pacemaker
pericarditis
prevention
pulmonary embolism
rehabilitation
revascularization
risk score
risk stratification
statin
stroke
surgery
syncope
thrombosis
treatment
troponin
valvular heart disease
ventricular tachycardia`,

	driven.VocabularyStopwords: `# Words ignored in queries and chapter titles.
a
about
after
all
an
and
are
as
at
be
by
for
from
guideline
guidelines
how
in
into
is
it
of
on
or
should
the
their
this
to
what
when
which
with`,
}

// NewVocabularyStore creates a new file-based vocabulary store.
// If dir is empty, defaults to ~/.guidekit/vocabulary/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewVocabularyStore(dir string) (*VocabularyStore, error) {
	if dir == "" {
		configDir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(configDir, "vocabulary")
	}

	return &VocabularyStore{
		dir:   dir,
		cache: make(map[string][]string),
	}, nil
}

// Load returns the terms of the named vocabulary.
// On first call, initialises the vocabulary directory and creates default files.
// Falls back to the embedded default if the file can't be read.
func (s *VocabularyStore) Load(name string) ([]string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if content, ok := defaultVocabularies[name]; ok {
			return parseTerms(content), nil
		}
		return nil, fmt.Errorf("vocabulary store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if terms, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return terms, nil
	}
	s.mu.RUnlock()

	terms, err := s.loadFromFile(name)
	if err != nil {
		content, ok := defaultVocabularies[name]
		if !ok {
			return nil, fmt.Errorf("load vocabulary %q: %w", name, err)
		}
		terms = parseTerms(content)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		terms = cached
	} else {
		s.cache[name] = terms
	}
	s.mu.Unlock()

	return terms, nil
}

// Reload clears the cache, forcing fresh loads from disk.
func (s *VocabularyStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string][]string)
	s.mu.Unlock()
}

// Dir returns the vocabulary directory path.
func (s *VocabularyStore) Dir() string {
	return s.dir
}

// initialise creates the directory and default files. Called once via sync.Once.
func (s *VocabularyStore) initialise() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.initErr = fmt.Errorf("create vocabulary directory: %w", err)
		return
	}

	for name, content := range defaultVocabularies {
		path := filepath.Join(s.dir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default vocabulary %q: %w", name, err)
				return
			}
		}
	}
}

func (s *VocabularyStore) loadFromFile(name string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		return nil, err
	}
	return parseTerms(string(data)), nil
}

// parseTerms returns the lowercased non-comment lines, deduplicated in order.
func parseTerms(content string) []string {
	var terms []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true
		terms = append(terms, line)
	}
	return terms
}
