package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/mcp-pdf-filler/internal/descriptions"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf/imaging"
)

// DirectoryCache provides TTL-based caching for directory contents
type DirectoryCache struct {
	entries map[string]*CacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// CacheEntry represents a cached directory scan result
type CacheEntry struct {
	result     *ScanResult
	lastUpdate time.Time
	scanning   bool
}

// ScanResult holds the PDF and font files found under a directory
type ScanResult struct {
	Forms        []FileInfo
	Fonts        []FileInfo
	FromCache    bool
	ScanTime     time.Duration
	FilesScanned int
	Truncated    bool
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached scan if it has not expired
func (c *DirectoryCache) Get(path string) *ScanResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists || entry.result == nil || time.Since(entry.lastUpdate) > c.ttl {
		return nil
	}
	cached := *entry.result
	cached.FromCache = true
	return &cached
}

// Set stores a scan result
func (c *DirectoryCache) Set(path string, result *ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CacheEntry{result: result, lastUpdate: time.Now()}
}

// TryStartScan marks path as being scanned and reports false when a scan is
// already running
func (c *DirectoryCache) TryStartScan(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[path]
	if !exists {
		c.entries[path] = &CacheEntry{scanning: true}
		return true
	}
	if entry.scanning {
		return false
	}
	entry.scanning = true
	return true
}

// FinishScan clears the scanning mark of path
func (c *DirectoryCache) FinishScan(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[path]; exists {
		entry.scanning = false
	}
}

// Clear removes expired entries
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for path, entry := range c.entries {
		if !entry.scanning && now.Sub(entry.lastUpdate) > c.ttl {
			delete(c.entries, path)
		}
	}
}

// Len returns the number of cached directories
func (c *DirectoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// DirectoryScanner walks a directory tree collecting forms and fonts within limits
type DirectoryScanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

// NewDirectoryScanner creates a scanner; zero limits disable the corresponding check
func NewDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *DirectoryScanner {
	return &DirectoryScanner{maxDepth: maxDepth, fileLimit: fileLimit, timeLimit: timeLimit}
}

// Scan walks root. Hidden entries and symlinks are skipped.
func (s *DirectoryScanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{Forms: []FileInfo{}}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}
		result.FilesScanned++

		if strings.HasPrefix(d.Name(), ".") || d.Type()&os.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if s.maxDepth > 0 && depth(root, path) >= s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
			result.Truncated = true
			return filepath.SkipAll
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != ".pdf" && ext != ".ttf" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		file := FileInfo{
			Name:         d.Name(),
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		}
		if ext == ".pdf" {
			result.Forms = append(result.Forms, file)
		} else {
			result.Fonts = append(result.Fonts, file)
		}
		if s.fileLimit > 0 && len(result.Forms)+len(result.Fonts) >= s.fileLimit {
			result.Truncated = true
			return filepath.SkipAll
		}
		return nil
	})

	result.ScanTime = time.Since(start)
	return result, err
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// ServerInfo reports server capabilities and the contents of the served directory
type ServerInfo struct {
	cache   *DirectoryCache
	scanner *DirectoryScanner
	service *Service
}

// NewServerInfo creates a server info handler for service
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		cache:   NewDirectoryCache(5 * time.Minute),
		scanner: NewDirectoryScanner(5, 200, 3*time.Second),
		service: service,
	}
}

// GetServerInfo describes the server. A scan already running for the
// directory yields empty listings instead of blocking.
func (p *ServerInfo) GetServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	dir := p.service.Directory()

	scan := p.cache.Get(dir)
	if scan == nil {
		if !p.cache.TryStartScan(dir) {
			scan = &ScanResult{Forms: []FileInfo{}}
		} else {
			defer p.cache.FinishScan(dir)

			scanCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			result, err := p.scanner.Scan(scanCtx, dir)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				result = &ScanResult{Forms: []FileInfo{}}
			}
			p.cache.Set(dir, result)
			scan = result
		}
	}

	fonts := p.service.Filler().Fonts().Fonts()
	sort.Slice(fonts, func(i, j int) bool { return fonts[i].Name < fonts[j].Name })

	return &ServerInfoResult{
		ServerName:            serverName,
		Version:               version,
		Directory:             dir,
		MaxFileSize:           p.service.GetMaxFileSize(),
		AvailableTools:        availableTools(),
		Forms:                 scan.Forms,
		FontFiles:             scan.Fonts,
		RegisteredFonts:       fonts,
		Truncated:             scan.Truncated,
		UsageGuidance:         p.usageGuidance(),
		SupportedImageFormats: imaging.SupportedFormats,
	}, nil
}

// ClearCache drops expired directory listings
func (p *ServerInfo) ClearCache() {
	p.cache.Clear()
}

func availableTools() []ToolInfo {
	pathParam := "path (required): PDF file inside the served directory (absolute or relative to it)"
	return []ToolInfo{
		{
			Name:        "pdf_form_scan",
			Description: descriptions.GetToolDescription("pdf_form_scan"),
			Usage:       "Use this tool first to learn field names, kinds and accepted values.",
			Parameters:  pathParam,
		},
		{
			Name:        "pdf_form_fill",
			Description: descriptions.GetToolDescription("pdf_form_fill"),
			Usage:       "Use this tool to fill fields by name, in simple or overlay mode.",
			Parameters: pathParam + ", values (required): object of field name to value, " +
				"mode (optional): simple or overlay, flatten (optional), appearances (optional), " +
				"styles (optional): object of field name to style overrides, output_path (optional)",
		},
		{
			Name:        "pdf_draw",
			Description: descriptions.GetToolDescription("pdf_draw"),
			Usage:       "Use this tool to stamp text, images and shapes onto pages.",
			Parameters:  pathParam + ", instructions (required): object keyed by page number, output_path (optional)",
		},
		{
			Name:        "pdf_register_font",
			Description: descriptions.GetToolDescription("pdf_register_font"),
			Usage:       "Use this tool to make a TrueType font usable by name.",
			Parameters:  "name (required): font name, path (required): .ttf file inside the served directory",
		},
		{
			Name:        "pdf_validate_file",
			Description: descriptions.GetToolDescription("pdf_validate_file"),
			Usage:       "Use this tool to check a file is a readable PDF.",
			Parameters:  pathParam,
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to list forms, fonts and capabilities.",
			Parameters:  "No parameters required",
		},
	}
}

func (p *ServerInfo) usageGuidance() string {
	maxFileSizeMB := p.service.GetMaxFileSize() / (1024 * 1024)

	return fmt.Sprintf(`PDF Form Filler Usage Guide:

1. DISCOVER:
   - Use 'pdf_server_info' to list the forms and fonts in the served directory
   - Use 'pdf_form_scan' to list the fields of a form

2. FILL:
   - Use 'pdf_form_fill' with values keyed by field name
   - Mode 'simple' keeps an editable form; mode 'overlay' draws the values onto the pages
   - Set 'flatten' to make every field read-only

3. DRAW:
   - Use 'pdf_draw' to add text, images, lines, rectangles and ellipses at page coordinates

4. FONTS:
   - Use 'pdf_register_font' to add a TrueType font, then name it in draw instructions

IMPORTANT NOTES:
- Paths are confined to %s
- The server can handle files up to %dMB
- Images may be %s
- Outputs are validated with an independent parser; problems are reported as warnings`,
		p.service.Directory(), maxFileSizeMB, strings.Join(imaging.SupportedFormats, ", "))
}
