package version

// Version is the current version of rascsictl.
// This MUST be incremented for each build that includes changes.
// Use semantic versioning: MAJOR.MINOR.PATCH
const Version = "0.3.0"

// MinServiceVersion is the oldest RaSCSI release whose control protocol
// matches the one spoken here
const MinServiceVersion = "21.10.0"
