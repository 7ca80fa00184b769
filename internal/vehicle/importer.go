package vehicle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"gba-rental/internal/config"
	"gba-rental/internal/logger"
	"gba-rental/internal/models"
)

// popularMakes is the allow-list applied to the registry feed; the raw
// feed contains thousands of trailer and equipment manufacturers.
var popularMakes = map[string]bool{
	"toyota": true, "honda": true, "nissan": true, "lexus": true,
	"mazda": true, "mitsubishi": true, "subaru": true, "suzuki": true,
	"hyundai": true, "kia": true, "genesis": true,
	"ford": true, "chevrolet": true, "tesla": true, "jeep": true,
	"dodge": true, "ram": true, "gmc": true, "cadillac": true,
	"chrysler": true, "lincoln": true,
	"bmw": true, "audi": true, "mercedes": true, "porsche": true,
	"volkswagen": true, "opel": true,
	"peugeot": true, "renault": true, "citroen": true,
	"fiat": true, "alfa romeo": true, "ferrari": true,
	"lamborghini": true, "maserati": true,
	"mini": true, "land rover": true, "jaguar": true, "bentley": true,
	"skoda": true, "seat": true, "volvo": true,
	"byd": true, "mg": true,
}

var makeNamePattern = regexp.MustCompile(`^[a-z0-9\s\-]+$`)

// Importer seeds the catalog from the public vehicle-make registry,
// generating rental inventory for each recognized brand.
type Importer struct {
	Service *VehicleService

	makesURL string
	perMake  int
	client   *http.Client
	logger   *logger.Logger
}

func NewImporter(service *VehicleService, cfg config.VehicleConfig, log *logger.Logger) *Importer {
	return &Importer{
		Service:  service,
		makesURL: cfg.ImportMakesURL,
		perMake:  cfg.ImportLimit,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   log,
	}
}

type makesResponse struct {
	Results []struct {
		MakeName string `json:"Make_Name"`
	} `json:"Results"`
}

// FetchMakes downloads the registry feed and filters it down to real,
// well-known car brands.
func (i *Importer) FetchMakes(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.makesURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vehicle makes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vehicle makes feed returned status %d", resp.StatusCode)
	}

	var parsed makesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode vehicle makes feed: %w", err)
	}

	var makes []string
	for _, m := range parsed.Results {
		name := strings.ToLower(strings.TrimSpace(m.MakeName))
		if len(name) <= 2 || !makeNamePattern.MatchString(name) {
			continue
		}
		if popularMakes[name] {
			makes = append(makes, name)
		}
	}
	return makes, nil
}

// ImportCatalog seeds inventory for every recognized make and returns
// the number of vehicles inserted.
func (i *Importer) ImportCatalog(ctx context.Context) (int, error) {
	makes, err := i.FetchMakes(ctx)
	if err != nil {
		return 0, err
	}
	i.logger.Info("VEHICLE", fmt.Sprintf("Importing inventory for %d makes", len(makes)))

	var vehicles []models.Vehicle
	for _, brand := range makes {
		vehicles = append(vehicles, i.generateInventory(brand)...)
	}

	if err := i.Service.DB.BulkInsertVehicles(vehicles); err != nil {
		i.logger.Error("VEHICLE", fmt.Sprintf("Failed to insert imported inventory: %v", err))
		return 0, err
	}

	i.logger.Info("VEHICLE", fmt.Sprintf("Import finished, %d vehicles added", len(vehicles)))
	return len(vehicles), nil
}

var modelLines = []string{"Compact", "Sedan", "SUV", "Coupe", "Wagon", "Crossover"}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (i *Importer) generateInventory(brand string) []models.Vehicle {
	count := i.perMake
	if count <= 0 {
		count = 5
	}

	now := time.Now()
	vehicles := make([]models.Vehicle, 0, count)
	for n := 0; n < count; n++ {
		vehicles = append(vehicles, models.Vehicle{
			VehicleID:    uuid.NewString(),
			VIN:          strings.ToUpper(fmt.Sprintf("%s-%s", brand, uuid.NewString()[:8])),
			Brand:        capitalize(brand),
			Model:        modelLines[n%len(modelLines)],
			Year:         2018 + rand.Intn(7),
			Fuel:         []string{"gasoline", "diesel", "hybrid", "electric"}[rand.Intn(4)],
			Transmission: []string{"automatic", "manual"}[rand.Intn(2)],
			Doors:        4,
			Seats:        5,
			Price:        float64(20000 + rand.Intn(80000)),
			Miles:        rand.Intn(120000),
			Stock:        1 + rand.Intn(3),
			CreatedAt:    now,
		})
	}
	return vehicles
}
