package core

// ArtifactStore accumulates completed-task artifacts scoped by run id.
// Implementations should be thread-safe and return defensive copies. Saves
// are append-only; LatestOfKind must be consistent with the total order of
// saves within a run.
type ArtifactStore interface {
	Save(runID string, a Artifact) error
	Get(runID, artifactID string) (Artifact, error)
	LatestOfKind(runID string, kind ArtifactKind) (Artifact, error)
	List(runID string) ([]string, error)
}
