package editor

import (
	"fmt"
	"strings"
)

// BuildInstruction assembles the instruction envelope sent to the remote
// model alongside the attached images. It enumerates the attachments in the
// fixed order they are sent (original, source patch, reference, mask) and
// issues the scoping rules the model must follow.
func BuildInstruction(userPrompt string, hasSource, hasReference, hasMask bool) string {
	var b strings.Builder

	b.WriteString(`You are an expert AI photo editor. Your task is to modify an image according to the user's instructions.

**Primary Goal:** Fulfill the user's request: "`)
	b.WriteString(userPrompt)
	b.WriteString(`"

**Provided Images (in order):**
1.  **Original Image:** The image to be edited.`)

	counter := 2
	if hasSource {
		fmt.Fprintf(&b, "\n%d.  **Source Patch:** A texture/content sample to use for the edit.", counter)
		counter++
	}
	if hasReference {
		fmt.Fprintf(&b, "\n%d.  **Reference Image:** An image for style or content inspiration.", counter)
		counter++
	}
	if hasMask {
		fmt.Fprintf(&b, "\n%d.  **Mask Image:** A black and white image where the white area defines the exact region to edit.", counter)
	}

	b.WriteString("\n\n**Instructions:**")

	if hasMask {
		b.WriteString("\n- Your edit MUST be strictly confined to the white area defined by the **Mask Image**.")
		b.WriteString("\n- The black areas of the mask must remain completely unchanged from the **Original Image**.")
	} else {
		b.WriteString("\n- Apply the edit to the **Original Image** as described in the user's request.")
	}

	if hasReference {
		b.WriteString("\n- Use the **Reference Image** as the primary inspiration for the style or content of the edit.")
	}
	if hasSource {
		b.WriteString("\n- Use the **Source Patch** for specific textures or patterns needed for the edit.")
	}

	b.WriteString("\n- The final result must be a photorealistic, seamlessly blended image.")
	b.WriteString("\n- **CRITICAL:** You MUST return the complete, full-frame image. DO NOT crop the image or return only the edited part.")

	return b.String()
}
