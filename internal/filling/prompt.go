package filling

import (
	"encoding/json"
	"fmt"
	"strings"

	"dashweave/internal/tools"
)

// buildSystemPrompt assembles the completion instructions plus the two
// context layers and the descriptors of the tools the model may use.
func buildSystemPrompt(pageCtx, fieldCtx string, descriptors []tools.Descriptor) string {
	var sb strings.Builder

	sb.WriteString("You are a JSON completion assistant that fills template placeholders with REAL, useful data.\n\n")
	sb.WriteString("RULES:\n")
	sb.WriteString("- Do NOT add or remove any keys from the JSON.\n")
	sb.WriteString("- Preserve the structure and types (object/array/scalar) exactly.\n")
	sb.WriteString("- Replace empty strings, null values, or placeholder values (TBD, placeholder, n/a, text, title).\n")
	sb.WriteString("- For arrays, maintain the same element schema but fill with REAL data.\n")
	sb.WriteString("- Return ONLY valid JSON that matches the original template structure.\n\n")
	sb.WriteString("DATA FILLING GUIDELINES:\n")
	sb.WriteString("1. Images: for image fields (image, imageUrl, photo, thumbnail, src), provide direct https URLs ending in .jpg, .png, or .webp.\n")
	sb.WriteString("2. Links: provide real, clickable https:// URLs.\n")
	sb.WriteString("3. Text: concise summaries, 2-3 sentences max for descriptions.\n")
	sb.WriteString("4. Prices: realistic formats ($XX.XX).\n")
	sb.WriteString("5. Ratings: numeric ratings (4.5, 3.8).\n")

	if len(descriptors) > 0 {
		sb.WriteString("\nAVAILABLE TOOLS:\n")
		for _, d := range descriptors {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", d.Name, d.Description))
		}
	}

	if pageCtx != "" {
		sb.WriteString("\nGLOBAL PAGE CONTEXT:\n")
		sb.WriteString(pageCtx)
		sb.WriteString("\n")
	}
	if fieldCtx != "" {
		sb.WriteString("\nFIELD-SPECIFIC CONTEXT:\n")
		sb.WriteString(fieldCtx)
		sb.WriteString("\n")
	}

	return sb.String()
}

// buildUserPrompt renders the template and the fill instructions.
func buildUserPrompt(template any) (string, error) {
	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Template:\n")
	sb.Write(data)
	sb.WriteString("\n\nFill the template by replacing placeholder values with REAL data.\n")
	sb.WriteString("Return ONLY the filled JSON, with no additional text.")
	return sb.String(), nil
}

// ExtractJSONObject extracts the first balanced JSON object from model
// output that may contain surrounding prose.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
