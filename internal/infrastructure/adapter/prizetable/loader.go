package prizetable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/prize-wheel/internal/domain/entity"
	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
)

const component = "prize table"

// itemFields holds the fields the wheel itself reads. Everything else stays in the raw object.
type itemFields struct {
	Name   string           `json:"name" validate:"required,max=128"`
	Chance *decimal.Decimal `json:"chance" validate:"required"`
}

// Loader reads prize tables from a JSON array of item objects
type Loader struct {
	fs        afero.Fs
	validator *validator.Validate
}

// NewLoader creates a new Loader over fs
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{
		fs:        fs,
		validator: validator.New(),
	}
}

// Load reads and validates the table at path. Any problem is a ConfigurationError.
func (l *Loader) Load(path string) (*entity.PrizeTable, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, errs.NewConfigurationError(component, fmt.Sprintf("cannot read %s: %v", path, err))
	}
	return l.Parse(data)
}

// Parse validates a table document
func (l *Loader) Parse(data []byte) (*entity.PrizeTable, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errs.NewConfigurationError(component, fmt.Sprintf("not a JSON array: %v", err))
	}
	if len(raws) == 0 {
		return nil, errs.NewConfigurationError(component, "no items")
	}

	items := make([]entity.PrizeItem, 0, len(raws))
	for i, raw := range raws {
		var fields itemFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, errs.NewConfigurationError(component, fmt.Sprintf("item %d: %v", i, err))
		}
		if err := l.validator.Struct(&fields); err != nil {
			return nil, errs.NewConfigurationError(component, fmt.Sprintf("item %d: %s", i, describe(err)))
		}

		compact := new(bytes.Buffer)
		if err := json.Compact(compact, raw); err != nil {
			return nil, errs.NewConfigurationError(component, fmt.Sprintf("item %d: %v", i, err))
		}
		items = append(items, entity.PrizeItem{
			Name:   fields.Name,
			Weight: *fields.Chance,
			Raw:    json.RawMessage(compact.Bytes()),
		})
	}

	table, err := entity.NewPrizeTable(items)
	if err != nil {
		return nil, err
	}
	if !table.TotalWeight().IsPositive() {
		return nil, errs.NewConfigurationError(component, "no item has a positive chance")
	}
	return table, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
