package devengado

import (
	"context"
	"fmt"
	"sort"

	"igvtools/pkg/models"
)

// GroupIssue describes a non-domiciled group that is not a valid pair.
type GroupIssue struct {
	GroupID    string
	Records    int
	Principals int
	IGVs       int
}

func (g GroupIssue) String() string {
	return fmt.Sprintf("%s: %d registros (%d principal, %d IGV)", g.GroupID, g.Records, g.Principals, g.IGVs)
}

// CheckGroups scans every record carrying a group id and reports the groups
// that do not hold exactly one PRINCIPAL and one IGV record.
func (m *Manager) CheckGroups(ctx context.Context) ([]GroupIssue, error) {
	all, err := m.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("CheckGroups: %w", err)
	}
	issues := checkGroups(all)
	for _, is := range issues {
		m.log.Warn().
			Str("group_id", is.GroupID).
			Int("records", is.Records).
			Msg("Inconsistent non-domiciled group")
	}
	return issues, nil
}

func checkGroups(all []*models.Devengado) []GroupIssue {
	byGroup := make(map[string]*GroupIssue)
	for _, r := range all {
		if r.GroupID == "" {
			continue
		}
		is, ok := byGroup[r.GroupID]
		if !ok {
			is = &GroupIssue{GroupID: r.GroupID}
			byGroup[r.GroupID] = is
		}
		is.Records++
		switch r.Rol {
		case models.RolPrincipal:
			is.Principals++
		case models.RolIGV:
			is.IGVs++
		}
	}
	var out []GroupIssue
	for _, is := range byGroup {
		if is.Records != 2 || is.Principals != 1 || is.IGVs != 1 {
			out = append(out, *is)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}
