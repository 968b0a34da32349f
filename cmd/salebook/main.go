package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"salebook/internal"
	"salebook/internal/config"
	"salebook/internal/extract"
	"salebook/internal/pipeline"
	"salebook/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "seed":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "seed fixture json")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		counts, err := seedFromFile(db, *file)
		must(err)
		fmt.Printf("seed complete: %s\n", counts)
	case "extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		media := fs.String("media", "", "audio/image file")
		mediaType := fs.String("type", "audio/m4a", "media mime type")
		hint := fs.String("hint", "", "intent hint (create_order|create_product|create_import_slip)")
		out := fs.String("out", "", "candidate document output json")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*media) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--media and --out are required"))
		}
		blob, err := os.ReadFile(*media)
		must(err)
		client := extract.NewClient(cfg)
		doc, err := client.Extract(context.Background(), blob, *mediaType, internal.Intent(*hint))
		must(err)
		encoded, err := json.MarshalIndent(doc, "", "  ")
		must(err)
		must(os.WriteFile(*out, encoded, 0o644))
		fmt.Printf("extracted intent=%s lines=%d -> %s\n", doc.Intent, len(doc.Lines), *out)
	case "process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "candidate document json")
		submit := fs.Bool("submit", false, "persist the transaction after reconciling")
		out := fs.String("out", "", "review xlsx path (optional)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}

		blob, err := os.ReadFile(*input)
		must(err)
		var doc internal.CandidateDocument
		must(json.Unmarshal(blob, &doc))

		svc := pipeline.NewReconcileService(db, cfg)
		result, err := svc.ReconcileDocument(context.Background(), doc)
		must(err)
		fmt.Printf("reconciled trace=%s intent=%s ok=%d review=%d notFound=%d\n",
			result.TraceID, result.Intent,
			result.Counts["ok"], result.Counts["review"], result.Counts["notFound"])

		if *out != "" && len(result.Rows) > 0 {
			must(pipeline.ExportRowsToXLSX(result.Rows, *out))
			fmt.Printf("exported %d rows to %s\n", len(result.Rows), *out)
		}

		if *submit {
			id, err := svc.Submit(result)
			if err != nil {
				var vErr *internal.ValidationError
				if errors.As(err, &vErr) {
					fmt.Println("submission blocked:")
					for _, v := range vErr.Violations {
						fmt.Printf("  %s: %s\n", v.Field, v.Reason)
					}
					os.Exit(2)
				}
				must(err)
			}
			fmt.Printf("submitted %s id=%d\n", result.Intent, id)
		}
	default:
		usage()
		os.Exit(1)
	}
}

type seedFixture struct {
	Customers []string `json:"customers"`
	Suppliers []string `json:"suppliers"`
	Brands    []string `json:"brands"`
	Catalogs  []string `json:"catalogs"`

	AttributeTypes []struct {
		Name     string   `json:"name"`
		Catalogs []string `json:"catalogs"`
		Values   []string `json:"values"`
	} `json:"attributeTypes"`

	Products []struct {
		Name      string   `json:"name"`
		Brand     string   `json:"brand"`
		Catalogs  []string `json:"catalogs"`
		Inventory float64  `json:"inventory"`
		Units     []struct {
			Name       string  `json:"name"`
			Factor     int64   `json:"factor"`
			Price      float64 `json:"price"`
			VatPercent float64 `json:"vatPercent"`
		} `json:"units"`
	} `json:"products"`
}

func seedFromFile(db *storage.DB, path string) (string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var fixture seedFixture
	if err := json.Unmarshal(blob, &fixture); err != nil {
		return "", err
	}

	named := func(kind internal.EntityKind, names []string) (map[string]int64, error) {
		out := map[string]int64{}
		for _, name := range names {
			record, err := db.CreateNamed(kind, name)
			if err != nil {
				return nil, err
			}
			out[name] = record.ID
		}
		return out, nil
	}

	if _, err := named(internal.KindCustomer, fixture.Customers); err != nil {
		return "", err
	}
	if _, err := named(internal.KindSupplier, fixture.Suppliers); err != nil {
		return "", err
	}
	brands, err := named(internal.KindBrand, fixture.Brands)
	if err != nil {
		return "", err
	}
	catalogs, err := named(internal.KindCatalog, fixture.Catalogs)
	if err != nil {
		return "", err
	}

	for _, at := range fixture.AttributeTypes {
		var catalogIDs []int64
		for _, name := range at.Catalogs {
			id, ok := catalogs[name]
			if !ok {
				return "", fmt.Errorf("attribute type %q references unknown catalog %q", at.Name, name)
			}
			catalogIDs = append(catalogIDs, id)
		}
		created, err := db.CreateAttributeType(at.Name, catalogIDs)
		if err != nil {
			return "", err
		}
		for _, value := range at.Values {
			if _, err := db.CreateAttributeValue(value, created.ID); err != nil {
				return "", err
			}
		}
	}

	for _, p := range fixture.Products {
		brandID, ok := brands[p.Brand]
		if !ok {
			return "", fmt.Errorf("product %q references unknown brand %q", p.Name, p.Brand)
		}
		var catalogIDs []int64
		for _, name := range p.Catalogs {
			id, ok := catalogs[name]
			if !ok {
				return "", fmt.Errorf("product %q references unknown catalog %q", p.Name, name)
			}
			catalogIDs = append(catalogIDs, id)
		}

		payload := internal.ProductPayload{
			Name:       p.Name,
			BrandID:    brandID,
			CatalogIDs: catalogIDs,
		}
		baseUnitName := ""
		for _, u := range p.Units {
			if u.Factor == 1 {
				baseUnitName = u.Name
			}
		}
		for _, u := range p.Units {
			payload.Units = append(payload.Units, internal.UnitConversion{
				UnitName:         u.Name,
				ConversionFactor: u.Factor,
				BaseUnitName:     baseUnitName,
				Price:            u.Price,
				VatPercent:       u.VatPercent,
			})
		}

		productID, err := db.SaveProduct(payload)
		if err != nil {
			return "", fmt.Errorf("product %q: %w", p.Name, err)
		}
		if p.Inventory > 0 {
			if err := db.SetInventory(productID, p.Inventory); err != nil {
				return "", err
			}
		}
	}

	return fmt.Sprintf("customers=%d suppliers=%d brands=%d catalogs=%d products=%d",
		len(fixture.Customers), len(fixture.Suppliers), len(fixture.Brands), len(fixture.Catalogs), len(fixture.Products)), nil
}

func usage() {
	fmt.Println(`salebook commands:
  seed     --file fixtures.json
  extract  --media voice.m4a --type audio/m4a [--hint create_order] --out doc.json
  process  --input doc.json [--submit] [--out review.xlsx]`)
}

func must(err error) {
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
