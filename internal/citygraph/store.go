package citygraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/obaidmalik/cityflow-backend-go/internal/models"
)

var (
	// ErrCityNotFound means no precomputed dataset exists for the city name.
	ErrCityNotFound = errors.New("city not found")

	// ErrEndpointNotFound means a tram endpoint could not be snapped to any
	// graph node within the snap tolerance.
	ErrEndpointNotFound = errors.New("tram endpoint not found")

	// ErrVariantUnavailable means the scenario graph could not be derived.
	ErrVariantUnavailable = errors.New("scenario variant unavailable")
)

// CityData bundles a loaded baseline graph with its dataset metadata.
type CityData struct {
	City  models.City
	Stops []models.Stop
	Graph *Graph
}

// cityFile mirrors the JSON layout of the offline dataset builder output.
type cityFile struct {
	Name  string        `json:"name"`
	Slug  string        `json:"slug"`
	Hub   string        `json:"hub"`
	Nodes []Node        `json:"nodes"`
	Edges []Edge        `json:"edges"`
	Stops []models.Stop `json:"stops"`
}

// Store loads precomputed city datasets and caches the baseline graphs.
// Cached graphs are read-only and shared between jobs.
type Store struct {
	dataDir string
	mu      sync.RWMutex
	cache   map[string]*CityData
}

// NewStore creates a store reading datasets from dataDir.
func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		cache:   make(map[string]*CityData),
	}
}

// Exists reports whether a dataset is available for the city name.
func (s *Store) Exists(city string) bool {
	_, err := os.Stat(s.cityPath(city))
	return err == nil
}

// LoadBaseline returns the baseline graph and metadata for a city, loading
// and caching the dataset on first use.
func (s *Store) LoadBaseline(city string) (*CityData, error) {
	slug := models.Slugify(city)

	s.mu.RLock()
	cached, ok := s.cache[slug]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	raw, err := os.ReadFile(s.cityPath(city))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCityNotFound, city)
		}
		return nil, fmt.Errorf("failed to read city dataset: %w", err)
	}

	var file cityFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse city dataset %s: %w", slug, err)
	}

	g := NewGraph(VariantBaseline)
	for i := range file.Nodes {
		n := file.Nodes[i]
		g.AddNode(&n)
	}
	for i := range file.Edges {
		e := file.Edges[i]
		if _, ok := g.Nodes[e.From]; !ok {
			continue
		}
		if _, ok := g.Nodes[e.To]; !ok {
			continue
		}
		g.AddEdge(&e)
	}

	data := &CityData{
		City:  models.City{Name: file.Name, Slug: file.Slug, Hub: file.Hub},
		Stops: file.Stops,
		Graph: g,
	}
	if data.City.Slug == "" {
		data.City.Slug = slug
	}

	s.mu.Lock()
	s.cache[slug] = data
	s.mu.Unlock()

	log.Printf("Loaded city dataset %s: %d nodes, %d edge groups, %d stops",
		slug, len(g.Nodes), len(g.Edges), len(file.Stops))
	return data, nil
}

// Load returns the requested graph variant for a city. The scenario variant
// needs the tram configuration to derive the spliced graph.
func (s *Store) Load(city, variant string, cfg models.JobConfig) (*Graph, error) {
	data, err := s.LoadBaseline(city)
	if err != nil {
		return nil, err
	}
	switch variant {
	case VariantBaseline:
		return data.Graph, nil
	case VariantScenario:
		return BuildScenario(data, cfg)
	}
	return nil, fmt.Errorf("%w: unknown variant %q", ErrVariantUnavailable, variant)
}

// ListCities scans the data directory for available datasets.
func (s *Store) ListCities() ([]models.City, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	cities := make([]models.City, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dataDir, entry.Name()))
		if err != nil {
			continue
		}
		var file cityFile
		if err := json.Unmarshal(raw, &file); err != nil {
			log.Printf("Skipping unparseable city dataset %s: %v", entry.Name(), err)
			continue
		}
		if file.Slug == "" {
			file.Slug = strings.TrimSuffix(entry.Name(), ".json")
		}
		cities = append(cities, models.City{Name: file.Name, Slug: file.Slug, Hub: file.Hub})
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].Slug < cities[j].Slug })
	return cities, nil
}

func (s *Store) cityPath(city string) string {
	return filepath.Join(s.dataDir, models.Slugify(city)+".json")
}
