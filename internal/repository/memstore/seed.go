package memstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mliber13/hsh-gc-platform-sub004/internal/model"
)

// LoadSeedFile registers the projects listed in a JSON array file.
// Projects are owned by an external system, so the in-process store needs
// them seeded before entries can be recorded against them.
func (s *Store) LoadSeedFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var projects []*model.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}
	for _, p := range projects {
		if p.ID == "" {
			return 0, fmt.Errorf("seed file: project without id")
		}
		s.PutProject(p)
	}
	return len(projects), nil
}
