package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile là hồ sơ chấm công của một nhân viên, đọc từ roster.yaml.
// Roster 对这套系统是只读的：改动走 HR 流程，不走 bot。
type Profile struct {
	EmployeeID  string `yaml:"employee_id"`
	DisplayName string `yaml:"display_name"`
	Department  string `yaml:"department"`
	TeamLead    string `yaml:"team_lead"`
	WorkShift   string `yaml:"work_shift"`
	SiteAddress string `yaml:"site_address"`
	Gender      string `yaml:"gender"`
}

// Roster maps chat identity -> profile.
type Roster map[string]Profile

type rosterFile struct {
	Users Roster `yaml:"users"`
}

func LoadRoster(path string) (Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}

	var f rosterFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %w", path, err)
	}

	if len(f.Users) == 0 {
		return nil, fmt.Errorf("roster file %s contains no users", path)
	}

	for identity, p := range f.Users {
		if p.EmployeeID == "" {
			return nil, fmt.Errorf("roster user %q has no employee_id", identity)
		}
	}

	return f.Users, nil
}

// Contains reports whether identity is a known roster member.
func (r Roster) Contains(identity string) bool {
	_, ok := r[identity]
	return ok
}
