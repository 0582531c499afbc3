package descriptions

// Tool descriptions with practical examples and use cases

const (
	PDFFormScanDescription = `List the fillable fields of a PDF form with their kind, page, position and constraints.

**When to use:** Before filling a form, to learn the field names and which values each field accepts.

**Why it's useful:** Every field is classified as text, checkbox, radio, dropdown, image or signature, so values can be shaped correctly on the first attempt.

**Examples:**
• Discover fields: "Scan application.pdf and tell me which fields are required"
• Check choices: "What options does the country dropdown in visa-form.pdf offer?"
• Comb fields: "How many characters does the postcode field of tax-return.pdf hold?"

**Value shapes by kind:**
• text: string
• checkbox: true or false
• radio: zero-based option index
• dropdown: option index, or the display or export value of a choice
• image, signature: path of an image file in the served directory

**Best practices:** Scan first, then pass the reported names to pdf_form_fill. Widgets without a field type are reported as warnings and cannot be filled.`

	PDFFormFillDescription = `Fill a PDF form by field name and write the result to a new file.

**When to use:** Need to complete a form programmatically from known data.

**Modes:**
• simple (default): stores values in the form fields. The document stays an editable form, and viewers render the values.
• overlay: draws values onto the pages as content. Text is fitted into each field, comb fields are spaced per character, and images are placed inside their boxes.

**Examples:**
• "Fill application.pdf with name 'Ada Lovelace' and check the agree box"
• "Fill contract.pdf in overlay mode and put signature.png in the signature field"
• "Fill and flatten invoice.pdf so the values can no longer be edited"

**Common workflows:**
1. Data entry: pdf_form_scan → build values → pdf_form_fill → pdf_validate_file
2. Signed copies: pdf_form_fill with mode overlay and an image for the signature field
3. Restyled copies: pass styles such as {"name": {"font_size": 10, "alignment": "center"}} to change fonts, colors and borders before filling

**Best practices:** Values of the wrong shape fail the whole request before anything is written. Unknown field names are ignored. The output defaults to <name>_filled.pdf next to the input.`

	PDFDrawDescription = `Draw text, images, lines, rectangles and ellipses onto the pages of a PDF.

**When to use:** Need to stamp, annotate or watermark a document, or place content where no form field exists.

**Instructions:** an object keyed by 1-based page number, each holding a list of instructions:
• {"type":"text","x":72,"y":720,"text":"APPROVED","size":18,"color":{"r":1,"g":0,"b":0}}
• {"type":"image","x":400,"y":40,"width":120,"height":60,"source":"logo.png","preserve_aspect_ratio":true}
• {"type":"line","x":72,"y":700,"x1":540,"y1":700,"stroke":{"r":0,"g":0,"b":0},"line_width":1}
• {"type":"rect","x":60,"y":60,"width":200,"height":40,"fill":{"r":0.9,"g":0.9,"b":0.9}}
• {"type":"ellipse","x":300,"y":300,"width":50,"height":50,"stroke":{"r":0,"g":0,"b":1},"dash":[3,2]}

Coordinates are PDF points from the bottom-left corner of the page.

**Best practices:** Register a TrueType font with pdf_register_font to draw text outside the Latin-1 range. The output defaults to <name>_drawn.pdf.`

	PDFRegisterFontDescription = `Register a TrueType font file under a name for later fill and draw requests.

**When to use:** The form or drawing needs glyphs outside the standard fonts, or a specific typeface.

**Examples:**
• "Register fonts/NotoSans-Regular.ttf as Noto and use it for the notes field"
• "Register a handwriting font to draw a signature line"

**Best practices:** Register once per server run. A field whose default appearance names a registered font is rendered with it automatically.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before filling a form received from elsewhere, or to check a produced document.

**Why it's useful:** Uses a second, independent PDF parser, so a document accepted here is readable beyond this server.

**Best practices:** Run it on inputs of unknown origin, and on outputs before sending them on.`

	PDFServerInfoDescription = `Get server status, available tools, registered fonts and the forms in the served directory.

**When to use:** At the start of a session, to discover which documents can be filled and which fonts are available.

**Why it's useful:** One call gives the served directory, the size limit, the fonts usable by name and the PDF files found.

**Best practices:** Directory contents are cached for a few minutes; very large directories are truncated.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_form_scan":     PDFFormScanDescription,
	"pdf_form_fill":     PDFFormFillDescription,
	"pdf_draw":          PDFDrawDescription,
	"pdf_register_font": PDFRegisterFontDescription,
	"pdf_validate_file": PDFValidateFileDescription,
	"pdf_server_info":   PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
