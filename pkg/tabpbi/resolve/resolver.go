package resolve

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/dataset"
	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/models"
	"go.uber.org/zap"
)

var (
	// ErrUnresolvedBinding indicates a required role could not be bound to a dataset column.
	ErrUnresolvedBinding = errors.New("unresolved binding")
	// ErrIncompleteChart indicates a chart record lacks a category or enough measures.
	ErrIncompleteChart = errors.New("incomplete chart bindings")
)

// categoryAliases are tried, in order, when the conceptual category column is absent.
var categoryAliases = []string{
	"State", "State/Province", "Segment", "Region", "Country", "City",
	"Category Name", "Product Category", "Customer Segment", "Product Name", "Type",
}

// Roles requested from a Suggester.
const (
	RoleDataset  = "dataset"
	RoleCategory = "category"
	RoleMeasure  = "measure"
)

// SuggestRequest asks for the closest available column to a conceptual field.
type SuggestRequest struct {
	// Worksheet is the chart being bound.
	Worksheet string
	// Role is RoleDataset, RoleCategory or RoleMeasure.
	Role string
	// Field is the conceptual field name.
	Field string
	// Measures lists the chart's measures for context.
	Measures []string
	// Table is the matched dataset, "" when the dataset itself is unknown.
	Table string
	// Available lists candidate columns as "Dataset.Column".
	Available []string
}

// Suggester proposes a column when deterministic matching fails.
type Suggester interface {
	SuggestField(ctx context.Context, req SuggestRequest) (string, error)
}

// Resolver binds chart records to loaded datasets.
type Resolver struct {
	datasets  []*models.Dataset
	sources   []models.DataSource
	suggester Suggester
	logger    *zap.Logger
}

// New returns a Resolver over datasets. sources supply the conceptual table
// names of workbook datasources. suggester and logger may be nil.
func New(datasets []*models.Dataset, sources []models.DataSource, suggester Suggester, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{datasets: datasets, sources: sources, suggester: suggester, logger: logger}
}

// Resolve binds every role of chart. It fails with ErrIncompleteChart when the
// record lacks required roles and with ErrUnresolvedBinding when a required
// role has no matching column.
func (r *Resolver) Resolve(ctx context.Context, chart models.ChartRecord) (*models.ResolvedBinding, error) {
	roles := RolesOf(chart)
	if roles.Category == "" {
		return nil, errors.Wrap(ErrIncompleteChart, "no category field")
	}
	if need := MinMeasures(chart.ChartType); len(roles.Measures) < need {
		return nil, errors.Wrapf(ErrIncompleteChart, "%d measures, need %d", len(roles.Measures), need)
	}

	logger := r.logger.With(zap.String("worksheet", chart.Worksheet))

	ds, err := r.matchDataset(ctx, chart, roles)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("dataset", ds.Name))

	category, err := r.resolveCategory(ctx, chart.Worksheet, ds, roles)
	if err != nil {
		return nil, err
	}

	binding := &models.ResolvedBinding{
		Worksheet: chart.Worksheet,
		ChartType: chart.ChartType,
		Dataset:   ds.Name,
		Alias:     Alias(ds.Name),
		Category:  category,
	}

	if roles.Legend != "" {
		if col := findColumn(ds, roles.Legend); col != "" && col != category {
			binding.Legend = col
		} else {
			logger.Debug("Legend field not found, omitting", zap.String("field", roles.Legend))
		}
	}

	for _, ref := range roles.Measures {
		field, fn := ParseAggregation(ref)
		col := findColumn(ds, field)
		if col == "" {
			col = r.suggest(ctx, SuggestRequest{
				Worksheet: chart.Worksheet,
				Role:      RoleMeasure,
				Field:     field,
				Measures:  roles.Measures,
				Table:     ds.Name,
				Available: qualifiedColumns(ds),
			}, ds)
		}
		if col == "" {
			return nil, errors.Wrapf(ErrUnresolvedBinding, "measure %q not found in dataset %s", ref, ds.Name)
		}
		binding.Measures = append(binding.Measures, measureRef(ds.Name, col, fn))
	}

	logger.Debug("Resolved chart bindings",
		zap.String("category", binding.Category),
		zap.Strings("measures", binding.MeasureRefs()),
	)
	return binding, nil
}

// CandidateTables returns the conceptual table names of the datasources chart
// references, or of every datasource when the chart names none.
func (r *Resolver) CandidateTables(chart models.ChartRecord) []string {
	var names []string
	for _, src := range r.sources {
		if len(chart.Datasources) > 0 && !containsString(chart.Datasources, src.Name) {
			continue
		}
		for _, n := range src.TableNames() {
			if !containsString(names, n) {
				names = append(names, n)
			}
		}
	}
	// Records read back from artifacts may name datasources missing from sources.
	for _, id := range chart.Datasources {
		if !containsString(names, id) {
			names = append(names, id)
		}
	}
	return names
}

func (r *Resolver) matchDataset(ctx context.Context, chart models.ChartRecord, roles Roles) (*models.Dataset, error) {
	tables := r.CandidateTables(chart)
	for _, table := range tables {
		for _, ds := range r.datasets {
			if dataset.SameName(ds.Name, table) || dataset.SameName(dataset.CleanDatasetName(table), ds.Name) {
				return ds, nil
			}
		}
	}

	if r.suggester != nil && len(r.datasets) > 0 {
		var available []string
		for _, ds := range r.datasets {
			available = append(available, qualifiedColumns(ds)...)
		}
		reply, err := r.suggester.SuggestField(ctx, SuggestRequest{
			Worksheet: chart.Worksheet,
			Role:      RoleDataset,
			Field:     roles.Category,
			Measures:  roles.Measures,
			Available: available,
		})
		if err != nil {
			r.logger.Warn("Dataset suggestion failed", zap.String("worksheet", chart.Worksheet), zap.Error(err))
		} else if ds := r.datasetFromReply(reply); ds != nil {
			return ds, nil
		}
	}

	return nil, errors.Wrapf(ErrUnresolvedBinding, "no dataset matches tables %v", tables)
}

// datasetFromReply returns the dataset whose qualified "Dataset.Column" name
// appears in a suggestion reply.
func (r *Resolver) datasetFromReply(reply string) *models.Dataset {
	if noSuggestion(reply) {
		return nil
	}
	for _, ds := range r.datasets {
		for _, q := range qualifiedColumns(ds) {
			if strings.Contains(reply, q) {
				return ds
			}
		}
	}
	return nil
}

func (r *Resolver) resolveCategory(ctx context.Context, worksheet string, ds *models.Dataset, roles Roles) (string, error) {
	if col := findColumn(ds, roles.Category); col != "" {
		return col, nil
	}

	for _, alias := range categoryAliases {
		if ds.HasColumn(alias) {
			return alias, nil
		}
	}
	for _, col := range ds.Columns {
		if col != "" {
			return col, nil
		}
	}

	if col := r.suggest(ctx, SuggestRequest{
		Worksheet: worksheet,
		Role:      RoleCategory,
		Field:     roles.Category,
		Table:     ds.Name,
		Available: qualifiedColumns(ds),
	}, ds); col != "" {
		return col, nil
	}

	return "", errors.Wrapf(ErrUnresolvedBinding, "category %q not found in dataset %s", roles.Category, ds.Name)
}

// suggest asks the suggester for a column of ds and validates the reply.
func (r *Resolver) suggest(ctx context.Context, req SuggestRequest, ds *models.Dataset) string {
	if r.suggester == nil {
		return ""
	}

	reply, err := r.suggester.SuggestField(ctx, req)
	if err != nil {
		r.logger.Warn("Field suggestion failed",
			zap.String("worksheet", req.Worksheet),
			zap.String("role", req.Role),
			zap.Error(err),
		)
		return ""
	}

	col := findColumn(ds, ParseSuggestion(reply, req.Role))
	if col == "" {
		r.logger.Info("Suggested field rejected",
			zap.String("worksheet", req.Worksheet),
			zap.String("role", req.Role),
			zap.String("reply", reply),
		)
	}
	return col
}

// ParseSuggestion extracts a column name from a suggestion reply. Replies may
// be a bare qualified name ("Orders.State") or the labeled form
// "Category: Orders.State, Measures: Sum(Orders.Sales)". Refusals yield "".
func ParseSuggestion(reply, role string) string {
	reply = strings.TrimSpace(reply)
	if noSuggestion(reply) {
		return ""
	}

	label := "category:"
	if role == RoleMeasure {
		label = "measures:"
	}
	if idx := strings.Index(strings.ToLower(reply), label); idx >= 0 {
		reply = reply[idx+len(label):]
		if role != RoleMeasure {
			if end := strings.Index(strings.ToLower(reply), "measures:"); end >= 0 {
				reply = reply[:end]
			}
		}
		if end := strings.Index(reply, ","); end >= 0 {
			reply = reply[:end]
		}
	}

	field := strings.Trim(strings.TrimSpace(reply), "[]'\"` ")
	field = BaseField(strings.TrimRight(field, ". "))
	return strings.Trim(field, "[]'\"` .")
}

func noSuggestion(reply string) bool {
	lower := strings.ToLower(strings.TrimSpace(reply))
	return lower == "" || strings.Contains(lower, "no clear")
}

// findColumn returns the dataset column equal to field, or failing that the
// column equal after name normalization.
func findColumn(ds *models.Dataset, field string) string {
	if field == "" {
		return ""
	}
	if ds.HasColumn(field) {
		return field
	}
	for _, col := range ds.Columns {
		if dataset.SameName(col, field) {
			return col
		}
	}
	return ""
}

func qualifiedColumns(ds *models.Dataset) []string {
	cols := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		cols[i] = ds.Name + "." + c
	}
	return cols
}
