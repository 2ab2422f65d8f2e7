package llm

import (
	"fmt"
	"strings"

	"github.com/ukaji3/tabpbi-go/pkg/tabpbi/resolve"
)

func validatePrompt(candidate string) string {
	return fmt.Sprintf(`Please check the following JSON for a Power BI Box-and-Whisker chart visual:

%s

Say "Valid" if it is a single object with "name", "layouts" and "singleVisual" keys at the top level and no nested "config" key.
Otherwise provide a corrected version inside a `+"```json"+` code block, keeping table names as-is, removing any nested "config" keys and ensuring the structure matches a valid Power BI visual configuration.`, candidate)
}

func titlePrompt(category string, measures []string, dataset string) string {
	return fmt.Sprintf("Generate a very concise (under 10 words) and professional title "+
		"for a Power BI bar chart that visualizes '%s' by '%s' from the '%s' dataset. "+
		"Make it suitable for a dashboard context. Example: 'Profit & Sales by State'. "+
		"Do not include the dataset name in the title. Only return the title, no extra text or quotes.",
		strings.Join(measures, " and "), category, dataset)
}

func fieldPrompt(req resolve.SuggestRequest) string {
	available := strings.Join(req.Available, ", ")

	var b strings.Builder
	switch req.Role {
	case resolve.RoleCategory:
		fmt.Fprintf(&b, "For a chart named '%s', the conceptual category is '%s' from the '%s' table. ", req.Worksheet, req.Field, req.Table)
		fmt.Fprintf(&b, "Suggest the most appropriate Power BI column name (fully qualified like 'Dataset.Column Name') "+
			"from the following available columns that semantically represents this category: [%s]. ", available)
		b.WriteString("Example suggestions: 'Orders.State or Province', 'Products.Category', 'Orders.Segment'. ")
		b.WriteString("Only return the fully qualified column name, no extra text or quotes. ")
		fmt.Fprintf(&b, "If no clear category column is apparent in the '%s' table, state 'No clear category column found in table'.", req.Table)
	default:
		field := req.Field
		if req.Role == resolve.RoleDataset {
			field = "conceptual: " + req.Field
		}
		fmt.Fprintf(&b, "I am trying to map fields for a chart named '%s'. ", req.Worksheet)
		if req.Role == resolve.RoleMeasure {
			fmt.Fprintf(&b, "I need the measure '%s' (chart measures: '%s') from the '%s' dataset. ", req.Field, strings.Join(req.Measures, " and "), req.Table)
		} else {
			fmt.Fprintf(&b, "I need a category '%s' and measures '%s'. ", field, strings.Join(req.Measures, " and "))
		}
		fmt.Fprintf(&b, "My available data columns are: [%s]. ", available)
		b.WriteString("I could not find exact matches for my required fields. ")
		b.WriteString("Suggest which of the available columns are the closest semantic matches, " +
			"formatted as 'Category: [suggestion], Measures: [suggestion1], [suggestion2]'. ")
		b.WriteString("If there is no good match, clearly state 'No clear semantic match found based on available data.'")
	}
	b.WriteString(" Do not ask questions, just provide the suggestions.")
	return b.String()
}
