package domain

// Screen keys understood by the host application.
const (
	ScreenImageMap    = "imagemap"
	ScreenProductions = "productions"
)

// NavigationRequest asks the host to switch to a top-level screen outside the wizard.
type NavigationRequest struct {
	SessionID    string
	Key          string
	ProductionID string
}

// GalleryNavigation is the request issued when the wizard enters StepGallery.
func GalleryNavigation(sessionID, productionID string) NavigationRequest {
	return NavigationRequest{SessionID: sessionID, Key: ScreenImageMap, ProductionID: productionID}
}

// ListingNavigation returns the host to the productions listing after completion.
func ListingNavigation(sessionID string) NavigationRequest {
	return NavigationRequest{SessionID: sessionID, Key: ScreenProductions}
}
