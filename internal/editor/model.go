package editor

import "os"

// Gemini Model IDs
//
// | Model Name               | API Model ID                   | Use Case                  |
// |--------------------------|--------------------------------|---------------------------|
// | Gemini 2.5 Flash Image   | gemini-2.5-flash-image-preview | Conversational image edit |
// | Gemini 3 Pro Image       | gemini-3-pro-image-preview     | Advanced image generation |
const (
	// ModelGemini25FlashImage supports conversational image editing with mask
	// and reference inputs.
	ModelGemini25FlashImage = "gemini-2.5-flash-image-preview"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
)

// DefaultImageModel is the default Gemini model used for photo edits.
// Can be overridden via the GEMINI_MODEL environment variable.
const DefaultImageModel = ModelGemini25FlashImage

// GetModelName returns the Gemini image model to use, resolved from:
// 1. GEMINI_MODEL environment variable (if set)
// 2. Default: gemini-2.5-flash-image-preview
func GetModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultImageModel
}
