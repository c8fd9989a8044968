package types

// Viewer is the request context handed to every service call: who is asking.
// The zero value is an anonymous visitor.
type Viewer struct {
	UserID  uint
	IsStaff bool
}

// Anonymous is the viewer of unauthenticated requests.
var Anonymous = Viewer{}

// ViewerFromClaims builds the viewer of an authenticated request.
func ViewerFromClaims(claims *TokenClaims) Viewer {
	return Viewer{UserID: claims.UserID, IsStaff: claims.IsStaff}
}

func (v Viewer) Authenticated() bool {
	return v.UserID != 0
}

// CanModify reports whether the viewer may change content owned by ownerID.
func (v Viewer) CanModify(ownerID uint) bool {
	return v.Authenticated() && (v.IsStaff || v.UserID == ownerID)
}
