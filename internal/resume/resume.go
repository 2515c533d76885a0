// Package resume loads the structured resume document and renders it into
// the flattened text block used as grounding context for AI prompts.
package resume

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Contact holds the candidate's contact details.
type Contact struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// Experience describes a single work history entry.
type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Location     string   `json:"location"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Education describes a degree entry.
type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	Location       string `json:"location,omitempty"`
	GraduationDate string `json:"graduationDate,omitempty"`
	Honors         string `json:"honors,omitempty"`
}

// Certification describes a professional certification.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Language describes a spoken language and proficiency level.
type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// Patent describes a patent or publication entry.
type Patent struct {
	Title  string `json:"title"`
	Number string `json:"number"`
	Date   string `json:"date"`
}

// Resume is the parsed resume document.
type Resume struct {
	Contact        Contact             `json:"contact"`
	Summary        string              `json:"summary"`
	Skills         map[string][]string `json:"skills"`
	Experience     []Experience        `json:"experience"`
	Education      []Education         `json:"education"`
	Certifications []Certification     `json:"certifications"`
	Languages      []Language          `json:"languages"`
	Patents        []Patent            `json:"patents"`
}

// rawResume matches the on-disk JSON layout, which keeps contact details
// under personalInfo and patents under publications.
type rawResume struct {
	PersonalInfo   Contact             `json:"personalInfo"`
	Summary        string              `json:"summary"`
	Skills         map[string][]string `json:"skills"`
	Experience     []Experience        `json:"experience"`
	Education      []Education         `json:"education"`
	Certifications []Certification     `json:"certifications"`
	Languages      []Language          `json:"languages"`
	Publications   []Patent            `json:"publications"`
}

// Source provides read-only access to the resume and caches the rendered
// prompt context after the first render.
type Source struct {
	resume *Resume

	mu      sync.Mutex
	context string
}

// Load reads and parses the resume JSON document at the given path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume data from %q: %w", path, err)
	}

	var raw rawResume
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing resume data: %w", err)
	}

	return New(&Resume{
		Contact:        raw.PersonalInfo,
		Summary:        raw.Summary,
		Skills:         raw.Skills,
		Experience:     raw.Experience,
		Education:      raw.Education,
		Certifications: raw.Certifications,
		Languages:      raw.Languages,
		Patents:        raw.Publications,
	}), nil
}

// New wraps an already-parsed resume in a Source.
func New(r *Resume) *Source {
	return &Source{resume: r}
}

// Resume returns the parsed resume document.
func (s *Source) Resume() *Resume {
	return s.resume
}

// Context renders the resume as a flattened text block suitable for
// embedding in a system prompt. The result is cached.
func (s *Source) Context() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.context != "" {
		return s.context
	}

	s.context = render(s.resume)
	return s.context
}

func render(r *Resume) string {
	if r == nil {
		return "Resume data not available"
	}

	var parts []string

	parts = append(parts, "**Contact Information:**")
	parts = append(parts, fmt.Sprintf("Name: %s", r.Contact.Name))
	if r.Contact.Location != "" {
		parts = append(parts, fmt.Sprintf("Location: %s", r.Contact.Location))
	}
	if r.Contact.Email != "" {
		parts = append(parts, fmt.Sprintf("Email: %s", r.Contact.Email))
	}
	if r.Contact.Phone != "" {
		parts = append(parts, fmt.Sprintf("Phone: %s", r.Contact.Phone))
	}
	if r.Contact.LinkedIn != "" {
		parts = append(parts, fmt.Sprintf("LinkedIn: %s", r.Contact.LinkedIn))
	}
	if r.Contact.GitHub != "" {
		parts = append(parts, fmt.Sprintf("GitHub: %s", r.Contact.GitHub))
	}
	parts = append(parts, "")

	if r.Summary != "" {
		parts = append(parts, "**Professional Summary:**", r.Summary, "")
	}

	if len(r.Skills) > 0 {
		parts = append(parts, "**Skills:**")
		for _, category := range sortedKeys(r.Skills) {
			skills := r.Skills[category]
			if len(skills) == 0 {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", splitCamelCase(category), strings.Join(skills, ", ")))
		}
		parts = append(parts, "")
	}

	if len(r.Experience) > 0 {
		parts = append(parts, "**Work Experience:**")
		for _, job := range r.Experience {
			end := job.EndDate
			if end == "" {
				end = "Present"
			}
			parts = append(parts, fmt.Sprintf("\n%s at %s", job.Title, job.Company))
			parts = append(parts, fmt.Sprintf("%s - %s", job.StartDate, end))
			if job.Location != "" {
				parts = append(parts, fmt.Sprintf("Location: %s", job.Location))
			}
			if job.Description != "" {
				parts = append(parts, job.Description)
			}
			if len(job.Achievements) > 0 {
				parts = append(parts, "Key Achievements:")
				for _, a := range job.Achievements {
					parts = append(parts, fmt.Sprintf("- %s", a))
				}
			}
			if len(job.Technologies) > 0 {
				parts = append(parts, fmt.Sprintf("Technologies: %s", strings.Join(job.Technologies, ", ")))
			}
		}
		parts = append(parts, "")
	}

	if len(r.Education) > 0 {
		parts = append(parts, "**Education:**")
		for _, edu := range r.Education {
			parts = append(parts, fmt.Sprintf("%s - %s", edu.Degree, edu.Institution))
			if edu.GraduationDate != "" {
				parts = append(parts, fmt.Sprintf("Graduated: %s", edu.GraduationDate))
			}
			if edu.Honors != "" {
				parts = append(parts, fmt.Sprintf("Honors: %s", edu.Honors))
			}
		}
		parts = append(parts, "")
	}

	if len(r.Certifications) > 0 {
		parts = append(parts, "**Certifications:**")
		for _, cert := range r.Certifications {
			line := fmt.Sprintf("- %s (%s)", cert.Name, cert.Issuer)
			if cert.Date != "" {
				line += ", " + cert.Date
			}
			parts = append(parts, line)
		}
		parts = append(parts, "")
	}

	if len(r.Languages) > 0 {
		parts = append(parts, "**Languages:**")
		for _, lang := range r.Languages {
			parts = append(parts, fmt.Sprintf("- %s: %s", lang.Language, lang.Proficiency))
		}
		parts = append(parts, "")
	}

	return strings.Join(parts, "\n")
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// YearsOfExperience derives total experience from the start year of the
// oldest work history entry. Returns 0 when no year can be determined.
func (s *Source) YearsOfExperience() int {
	if s.resume == nil || len(s.resume.Experience) == 0 {
		return 0
	}

	first := s.resume.Experience[len(s.resume.Experience)-1]
	match := yearPattern.FindString(first.StartDate)
	if match == "" {
		return 0
	}

	startYear, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}

	years := time.Now().Year() - startYear
	if years < 0 {
		return 0
	}
	return years
}

// splitCamelCase turns a camelCase skill category key into separate words,
// e.g. "cloudPlatforms" becomes "cloud Platforms".
func splitCamelCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable order keeps the rendered context deterministic across runs.
	sort.Strings(keys)
	return keys
}
