package ingest

import "fmt"

// Phase labels shown verbatim in the admin UI. The UI is Hungarian, so
// the labels are too.
const (
	PhaseDownloading = "ZIP letöltése és kicsomagolása"
	PhaseCoverUpload = "Borítókép feltöltése (MinIO)"
	PhaseAudioUpload = "WAV fájlok feltöltése (MinIO)"
	PhaseSaving      = "Zeneszámok mentése az adatbázisba"
	PhaseDone        = "Kész"
	PhaseError       = "Hiba"
)

// audioProgressPhase renders the per-file upload phase with an
// index/total suffix.
func audioProgressPhase(index, total int) string {
	return fmt.Sprintf("%s — %d/%d", PhaseAudioUpload, index, total)
}
