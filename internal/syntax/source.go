package syntax

import "os"

// Source holds a named buffer of script text.
type Source struct {
	Name string
	Text string
}

func NewSource(name, text string) *Source {
	return &Source{Name: name, Text: text}
}

// OpenSource reads a script file from disk, naming it after the path.
func OpenSource(path string) (*Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Source{Name: path, Text: string(content)}, nil
}

func (s *Source) DisplayName() string {
	if s.Name == "" {
		return "<unknown>"
	}
	return s.Name
}
