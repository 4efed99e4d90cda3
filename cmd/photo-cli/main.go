package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/fpang/photo-drilldown/internal/auth"
	"github.com/fpang/photo-drilldown/internal/editor"
	"github.com/fpang/photo-drilldown/internal/geometry"
	"github.com/fpang/photo-drilldown/internal/imagefile"
	"github.com/fpang/photo-drilldown/internal/logging"
)

// CLI flags
var (
	imageFlag     string
	promptFlag    string
	selectionFlag string
	sourceFlag    string
	referenceFlag string
	scopeFlag     string
	outputFlag    string
	modelFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "photo-cli",
	Short: "One-shot AI photo edit from the command line",
	Long: `Photo CLI applies a single AI edit to an image without the web UI.
The edit can target the whole image or a polygon region given as a JSON
array of {"x":..,"y":..} points in image-pixel coordinates.

Examples:
  photo-cli --image photo.jpg --prompt "make the sky dramatic"
  photo-cli -i photo.jpg -p "replace with brick" --selection region.json
  photo-cli -i photo.jpg -p "match this style" --reference style.png
  photo-cli -i photo.jpg -p "golden hour light" -o sunset.png --model gemini-3-pro-image-preview`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Image to edit (required)")
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Edit instruction (required)")
	rootCmd.Flags().StringVar(&selectionFlag, "selection", "", "JSON file with polygon points in image-pixel coordinates")
	rootCmd.Flags().StringVar(&sourceFlag, "source-patch", "", "PNG cutout to use as a texture/content donor")
	rootCmd.Flags().StringVar(&referenceFlag, "reference", "", "Style/content reference image")
	rootCmd.Flags().StringVar(&scopeFlag, "scope", "", "Force edit scope: image or selection (default: derived)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", imagefile.EditedFilename, "Output file for the edited image")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", editor.DefaultImageModel, "Gemini image model to use")
	rootCmd.MarkFlagRequired("image")
	rootCmd.MarkFlagRequired("prompt")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to retrieve API key")
	}

	ctx := context.Background()
	validationClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}
	if err := auth.ValidateAPIKey(ctx, validationClient); err != nil {
		handleValidationError(err)
	}
	log.Info().Msg("API key validation complete - ready for operations")

	in, err := buildInput()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid edit request")
	}

	// Display header
	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("🖼️  AI Photo Edit")
	fmt.Println("============================================")
	fmt.Printf("Image: %s\n", filepath.Base(imageFlag))
	fmt.Printf("Prompt: %s\n", promptFlag)
	fmt.Printf("Scope: %s\n", in.Scope)
	if len(in.Selection) > 0 {
		fmt.Printf("Selection: %d points\n", len(in.Selection))
	}
	if len(in.SourcePatch) > 0 {
		fmt.Println("Source patch: attached")
	}
	if in.Reference != nil {
		fmt.Printf("Reference: %s\n", filepath.Base(referenceFlag))
	}
	fmt.Printf("Model: %s\n", modelFlag)
	fmt.Println("--------------------------------------------")
	fmt.Println("⏳ Sending edit to Gemini...")
	fmt.Println()

	client := editor.NewGeminiClient(apiKey).WithModel(modelFlag)
	result, err := editor.NewOrchestrator(client).Apply(ctx, *in)
	if err != nil {
		log.Fatal().Err(err).Msg("edit failed")
	}

	if err := os.WriteFile(outputFlag, result.ImageData, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", outputFlag).Msg("failed to write output")
	}

	fmt.Println("✅ Edit Complete!")
	fmt.Println("============================================")
	fmt.Printf("Saved: %s (%.1f KB)\n", outputFlag, float64(len(result.ImageData))/1024)
	if result.Text != "" {
		fmt.Println()
		fmt.Println(result.Text)
	}
}

// buildInput assembles and validates the edit request from the CLI flags.
func buildInput() (*editor.Input, error) {
	original, err := loadImage(imageFlag)
	if err != nil {
		return nil, err
	}

	in := &editor.Input{
		Original: *original,
		Prompt:   promptFlag,
		Scope:    editor.ScopeImage,
	}

	if selectionFlag != "" {
		points, err := loadSelection(selectionFlag)
		if err != nil {
			return nil, err
		}
		in.Selection = points
		if len(points) >= geometry.MinClosedPoints {
			in.Scope = editor.ScopeSelection
		}
	}
	if scopeFlag != "" {
		switch strings.ToLower(scopeFlag) {
		case "image":
			in.Scope = editor.ScopeImage
		case "selection":
			in.Scope = editor.ScopeSelection
		default:
			return nil, fmt.Errorf("unknown scope %q (want image or selection)", scopeFlag)
		}
	}
	if sourceFlag != "" {
		patch, err := os.ReadFile(sourceFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to read source patch: %w", err)
		}
		in.SourcePatch = patch
	}
	if referenceFlag != "" {
		ref, err := loadImage(referenceFlag)
		if err != nil {
			return nil, err
		}
		in.Reference = ref
	}

	if err := editor.Validate(*in); err != nil {
		return nil, err
	}
	return in, nil
}

func loadImage(path string) (*editor.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	mime, err := imagefile.ValidateUpload(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &editor.Payload{Data: data, MIME: mime}, nil
}

func loadSelection(path string) ([]geometry.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read selection file: %w", err)
	}
	var points []geometry.Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("invalid selection file %s: %w", path, err)
	}
	return points, nil
}

// handleValidationError processes validation errors and exits with appropriate messaging.
func handleValidationError(err error) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		switch validationErr.Type {
		case auth.ErrTypeNoKey:
			log.Fatal().Msg("No API key configured. Set GEMINI_API_KEY or store it at ~/.photo-drilldown/credentials.gpg")
		case auth.ErrTypeInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case auth.ErrTypeNetworkError:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case auth.ErrTypeQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("unexpected error during API key validation")
	}
	os.Exit(1)
}
