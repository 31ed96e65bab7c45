package openstack

// Cinder snapshot states.
const (
	SnapshotCreating  = "creating"
	SnapshotAvailable = "available"
	SnapshotDeleting  = "deleting"
	SnapshotError     = "error"
)

// Cinder volume states.
const (
	VolumeAvailable = "available"
	VolumeInUse     = "in-use"
)

// snapshotDescription marks snapshots created by this tool.
const snapshotDescription = "Created and managed by waitsentry"
