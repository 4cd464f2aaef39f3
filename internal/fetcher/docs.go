package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/nanikabot/nanika/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// InventoryFile is the name of the Sphinx inventory under a docs URL.
const InventoryFile = "objects.inv"

// ErrInventoryFormat is returned for files that are not version 2 Sphinx
// inventories.
var ErrInventoryFormat = errors.New("not a sphinx inventory")

// inventoryLine is "name domain:role priority uri display name".
var inventoryLine = regexp.MustCompile(`^(.+?)\s+(\S+)\s+(-?\d+)\s+?(\S*)\s+(.*)$`)

// InventoryItem is one documented object.
type InventoryItem struct {
	Name     string
	Domain   string
	Role     string
	Priority int
	// URL is absolute.
	URL string
	// Display is the name shown for the object.
	Display string
}

// Inventory is a parsed objects.inv.
type Inventory struct {
	Project string
	Version string
	Items   []InventoryItem
}

// ParseInventory reads a version 2 inventory. Relative locations are joined
// onto baseURL.
func ParseInventory(r io.Reader, baseURL string) (*Inventory, error) {
	br := bufio.NewReader(r)

	header := make([]string, 4)
	for i := range header {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: short header", ErrInventoryFormat)
		}
		header[i] = strings.TrimRight(line, "\r\n")
	}

	if header[0] != "# Sphinx inventory version 2" {
		return nil, fmt.Errorf("%w: %q", ErrInventoryFormat, header[0])
	}
	if !strings.Contains(header[3], "zlib") {
		return nil, fmt.Errorf("%w: uncompressed body", ErrInventoryFormat)
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory body: %w", err)
	}
	defer zr.Close()

	inv := &Inventory{
		Project: strings.TrimPrefix(header[1], "# Project: "),
		Version: strings.TrimPrefix(header[2], "# Version: "),
	}

	base := strings.TrimSuffix(baseURL, "/") + "/"
	seen := make(map[[2]string]struct{})

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	for scanner.Scan() {
		m := inventoryLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		name, kind, location, display := m[1], m[2], m[4], m[5]

		domain, role, ok := strings.Cut(kind, ":")
		if !ok {
			continue
		}

		priority, _ := strconv.Atoi(m[3])

		if strings.HasSuffix(location, "$") {
			location = location[:len(location)-1] + name
		}
		if !strings.Contains(location, "://") {
			location = base + location
		}

		if display == "-" {
			display = name
			if _, anchor, found := strings.Cut(location, "#"); found && anchor != "" {
				display = anchor
			}
		}

		key := [2]string{display, location}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		inv.Items = append(inv.Items, InventoryItem{
			Name:     name,
			Domain:   domain,
			Role:     role,
			Priority: priority,
			URL:      location,
			Display:  display,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}

	return inv, nil
}

// Docs downloads documentation inventories.
type Docs struct {
	client *client
}

// NewDocs creates a Docs client. A nil httpClient uses http.DefaultClient.
func NewDocs(httpClient HTTPClient, cfg *config.Docs, logger *zap.Logger, opts ...Option) *Docs {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = 2
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 2
	}

	c := &client{
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		retry:   utils.GetHTTPRetryOptions(),
		logger:  logger.Named("docs"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return &Docs{client: c}
}

// Inventory downloads and parses the inventory of the docs hosted at baseURL.
func (d *Docs) Inventory(ctx context.Context, baseURL string) (*Inventory, error) {
	endpoint := strings.TrimSuffix(baseURL, "/") + "/" + InventoryFile

	body, err := d.client.fetch(ctx, endpoint, "application/octet-stream")
	if err != nil {
		return nil, err
	}

	inv, err := ParseInventory(bytes.NewReader(body), baseURL)
	if err != nil {
		return nil, err
	}

	d.client.logger.Debug("Loaded inventory",
		zap.String("project", inv.Project),
		zap.String("version", inv.Version),
		zap.Int("items", len(inv.Items)))

	return inv, nil
}
