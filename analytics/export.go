package analytics

import (
	"encoding/json"
	"os"
	"sort"
)

// Export renders all campaign snapshots as indented JSON, sorted by
// campaign id for stable output.
func (t *Tracker) Export() ([]byte, error) {
	snaps := t.Snapshots()
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CampaignID < snaps[j].CampaignID })
	return json.MarshalIndent(snaps, "", "  ")
}

// ExportToFile writes the snapshot JSON to a file.
func (t *Tracker) ExportToFile(filename string) error {
	b, err := t.Export()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}
