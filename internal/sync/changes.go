package sync

import "sort"

// Changes is the diff between a directory scan and the graph store's
// recorded file states, grounded on original_source's FileChangeScanner.
type Changes struct {
	New      []string
	Modified []string
	Deleted  []string
}

// TotalChanges reports how many files were added, modified, or removed.
func (c *Changes) TotalChanges() int {
	if c == nil {
		return 0
	}
	return len(c.New) + len(c.Modified) + len(c.Deleted)
}

// FindChanges compares a fresh scan against the store's last-known file
// states. A path present in both with a differing checksum is modified; a
// path only on disk is new; a path only in the store is deleted.
func FindChanges(scan *ScanResult, dbRecords map[string]FileState) *Changes {
	changes := &Changes{}
	for path, onDisk := range scan.Files {
		recorded, ok := dbRecords[path]
		if !ok {
			changes.New = append(changes.New, path)
			continue
		}
		if recorded.Checksum != onDisk.Checksum {
			changes.Modified = append(changes.Modified, path)
		}
	}
	for path := range dbRecords {
		if _, ok := scan.Files[path]; !ok {
			changes.Deleted = append(changes.Deleted, path)
		}
	}
	sort.Strings(changes.New)
	sort.Strings(changes.Modified)
	sort.Strings(changes.Deleted)
	return changes
}

// Move is a detected rename: a deleted path and a new path that share the
// same checksum within one scan.
type Move struct {
	From string
	To   string
}

// DetectMoves pairs each deleted path with an unclaimed new path carrying an
// identical checksum, per spec.md §4.7's move-detection rule. Each new path
// is consumed by at most one move.
func DetectMoves(changes *Changes, dbRecords map[string]FileState, scan *ScanResult) []Move {
	var moves []Move
	claimed := make(map[string]bool, len(changes.New))
	for _, deletedPath := range changes.Deleted {
		deletedChecksum := dbRecords[deletedPath].Checksum
		if deletedChecksum == "" {
			continue
		}
		for _, newPath := range changes.New {
			if claimed[newPath] {
				continue
			}
			if scan.Files[newPath].Checksum == deletedChecksum {
				moves = append(moves, Move{From: deletedPath, To: newPath})
				claimed[newPath] = true
				break
			}
		}
	}
	return moves
}
