package export

import (
	"errors"
	"fmt"
)

var (
	ErrBusy             = errors.New("an export is already in progress")
	ErrPrecondition     = errors.New("export preconditions not met")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrInvalidGeometry  = errors.New("invalid export geometry")
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageFonts     Stage = "fonts"
	StageGeometry  Stage = "geometry"
	StageRasterize Stage = "rasterize"
	StageDeliver   Stage = "deliver"
)

// Failure is a terminal export error. The busy state is already cleared
// when it is returned.
type Failure struct {
	ExportID string
	Stage    Stage
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("export %s failed during %s: %v", f.ExportID, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// UserMessage explains the failure with the likely causes and the
// recommended workaround.
func (f *Failure) UserMessage() string {
	return UserMessage(f.Err)
}

// UserMessage renders the download failure notice shown to the user.
func UserMessage(err error) string {
	return "Sorry, the download failed.\n\n" +
		"This is usually caused by a network issue or a browser security policy (CORS) that prevents loading external resources like the product image or fonts.\n\n" +
		"RECOMMENDATIONS:\n" +
		"1. Check your internet connection and try again.\n" +
		"2. Disable any ad-blocker or privacy extensions and try again.\n" +
		"3. Use the \"Change Image\" or \"Change Logo\" button to upload the image from your computer. This is the most reliable method.\n\n" +
		"Error details: " + err.Error()
}
