package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

type Course struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
	Duration    string `json:"duration"`
}

type Instructor struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// EmbeddingText is the text a course record is embedded from.
func (c Course) EmbeddingText() string { return c.Name + " " + c.Description }

// EmbeddingText is the text an instructor record is embedded from.
func (i Instructor) EmbeddingText() string { return i.Name + " " + i.Bio }

// Catalog holds the static course and instructor datasets.
// It is loaded once at startup and never mutated afterwards.
type Catalog struct {
	Courses     []Course
	Instructors []Instructor
}

func Load(coursesPath, instructorsPath string) (*Catalog, error) {
	var courses []Course
	if err := loadJSON(coursesPath, &courses); err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	var instructors []Instructor
	if err := loadJSON(instructorsPath, &instructors); err != nil {
		return nil, fmt.Errorf("load instructors: %w", err)
	}
	return &Catalog{Courses: courses, Instructors: instructors}, nil
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
		}
	}(f)
	dec := json.NewDecoder(f)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
