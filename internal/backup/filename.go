package backup

import "time"

const fileNamePrefix = "keepsake_backup_"

// FileName returns the suggested file name for a backup taken at now.
// Restore never parses it back.
func FileName(now time.Time) string {
	return fileNamePrefix + now.Format("20060102150405") + ".json"
}
