package tools

// RegisterAllTools registers every available tool with the registry, in
// the fixed order exposed to callers enumerating tools.
func RegisterAllTools(r *Registry) {
	r.MustRegister(ToolDefinition{
		Name:        "scrape_page",
		Description: "Scrape a single web page and return its text content",
		InputSchema: ScrapePageSchema(),
	}, HandleScrapePage)

	r.MustRegister(ToolDefinition{
		Name:        "batch_scrape",
		Description: "Scrape up to 10 web pages sequentially, returning one result per URL",
		InputSchema: BatchScrapeSchema(),
	}, HandleBatchScrape)

	r.MustRegister(ToolDefinition{
		Name:        "extract_data",
		Description: "Extract structured data from up to 5 pages using a natural-language prompt",
		InputSchema: ExtractDataSchema(),
	}, HandleExtractData)

	r.MustRegister(ToolDefinition{
		Name:        "extract_with_schema",
		Description: "Extract data conforming to a JSON schema from up to 10 pages",
		InputSchema: ExtractWithSchemaSchema(),
	}, HandleExtractWithSchema)

	r.MustRegister(ToolDefinition{
		Name:        "screenshot",
		Description: "Capture a rendered screenshot of a page as an inline base64 image",
		InputSchema: ScreenshotSchema(),
	}, HandleScreenshot)
}
