package services

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
)

// defaultAbbreviations maps uppercase research abbreviations to their full
// phrases. Expansions are appended to the query to improve lexical recall;
// the original query text is never removed.
var defaultAbbreviations = map[string]string{
	// Machine Learning & AI
	"ML":  "machine learning",
	"DL":  "deep learning",
	"AI":  "artificial intelligence",
	"RL":  "reinforcement learning",
	"NLP": "natural language processing",
	"CV":  "computer vision",
	"GAN": "generative adversarial network",
	"CNN": "convolutional neural network",
	"RNN": "recurrent neural network",
	"LLM": "large language model",
	"AGI": "artificial general intelligence",

	// Statistics & Math
	"PCA":  "principal component analysis",
	"SVM":  "support vector machine",
	"GMM":  "gaussian mixture model",
	"HMM":  "hidden markov model",
	"MCMC": "markov chain monte carlo",
	"MLE":  "maximum likelihood estimation",
	"MAP":  "maximum a posteriori",
	"ODE":  "ordinary differential equation",
	"PDE":  "partial differential equation",

	// Systems & Networks
	"HPC": "high performance computing",
	"IOT": "internet of things",
	"OS":  "operating systems",
	"DB":  "database",
	"API": "application programming interface",
	"P2P": "peer to peer",

	// Biology & Health
	"NMR":    "nuclear magnetic resonance",
	"FMRI":   "functional magnetic resonance imaging",
	"EEG":    "electroencephalography",
	"DNA":    "deoxyribonucleic acid",
	"RNA":    "ribonucleic acid",
	"CRISPR": "clustered regularly interspaced short palindromic repeats",

	// Security & Crypto
	"PKI": "public key infrastructure",
	"MPC": "multi-party computation",
	"ZKP": "zero knowledge proof",
}

const tokenPunctuation = ".,!?()[]{}"

// QueryExpander appends full-phrase expansions of known abbreviations to a
// search query. Matching is whole-token and case-insensitive, after stripping
// surrounding punctuation; substrings inside longer tokens never match.
type QueryExpander struct {
	table map[string]string
}

// NewQueryExpander builds an expander from the compiled-in table, merged with
// an optional YAML override file (ABBREVIATIONS_PATH, abbreviation: phrase).
func NewQueryExpander(log *logger.Logger) *QueryExpander {
	table := make(map[string]string, len(defaultAbbreviations))
	for k, v := range defaultAbbreviations {
		table[k] = v
	}

	path := strings.TrimSpace(os.Getenv("ABBREVIATIONS_PATH"))
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if log != nil {
				log.Warn("Could not read abbreviations file, using defaults", "path", path, "error", err)
			}
		} else {
			overrides := map[string]string{}
			if err := yaml.Unmarshal(raw, &overrides); err != nil {
				if log != nil {
					log.Warn("Could not parse abbreviations file, using defaults", "path", path, "error", err)
				}
			} else {
				for k, v := range overrides {
					table[strings.ToUpper(strings.TrimSpace(k))] = v
				}
			}
		}
	}

	return &QueryExpander{table: table}
}

// Expand returns the query with matched expansions appended once each,
// deduplicated across the matched set and sorted. Dedup applies only to the
// additions; a phrase already spelled out in the query is still appended when
// its abbreviation token also appears, which raises its lexical term
// frequency. A query with no abbreviation tokens is returned unchanged.
func (qe *QueryExpander) Expand(query string) string {
	additions := map[string]bool{}
	for _, word := range strings.Fields(query) {
		clean := strings.Trim(strings.ToUpper(word), tokenPunctuation)
		if phrase, ok := qe.table[clean]; ok {
			additions[phrase] = true
		}
	}
	if len(additions) == 0 {
		return query
	}

	phrases := make([]string, 0, len(additions))
	for phrase := range additions {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)

	return query + " " + strings.Join(phrases, " ")
}
