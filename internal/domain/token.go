package domain

// ResolutionSource tells which authority vouched for a token.
type ResolutionSource string

const (
	SourceCache       ResolutionSource = "cache"
	SourceSignedClaim ResolutionSource = "signed_claim"
	SourceRemote      ResolutionSource = "remote"
)

// Resolution is a successfully validated token.
type Resolution struct {
	UserID int64
	Source ResolutionSource
}
