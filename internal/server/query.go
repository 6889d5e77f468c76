package server

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/cohort"
	"github.com/sells-group/readiness-cli/internal/model"
)

// viewQuery holds the filter, search, sort and paging parameters shared by
// the explorer, stats and export endpoints.
type viewQuery struct {
	County   string `query:"county" validate:"max=200"`
	District string `query:"district" validate:"max=200"`
	Tier     string `query:"tier" validate:"max=200"`
	Poverty  string `query:"poverty" validate:"max=200"`
	Search   string `query:"search" validate:"max=200"`
	Sort     string `query:"sort" validate:"omitempty,sortkey"`
	Dir      string `query:"dir" validate:"omitempty,oneof=asc desc"`
	Page     int    `query:"page" validate:"min=1"`
	PageSize int    `query:"page_size" validate:"min=1,max=500"`
}

// criteria maps the query onto filter criteria. Missing values become the
// "All ..." sentinels.
func (q viewQuery) criteria() model.FilterCriteria {
	c := model.DefaultFilter()
	if q.County != "" {
		c.County = q.County
	}
	if q.District != "" {
		c.District = q.District
	}
	if q.Tier != "" {
		c.RiskTier = q.Tier
	}
	if q.Poverty != "" {
		c.PovertyLevel = q.Poverty
	}
	return c
}

// apply runs filter, search and sort over records.
func (q viewQuery) apply(records []model.ChildRecord) []model.ChildRecord {
	out := cohort.Filter(records, q.criteria())
	out = cohort.Search(out, q.Search)
	if q.Sort != "" {
		out = cohort.Sort(out, cohort.SortKey(q.Sort), q.Dir == "desc")
	}
	return out
}

type runsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=running complete failed"`
	Limit  int    `query:"limit" validate:"min=0,max=1000"`
	Offset int    `query:"offset" validate:"min=0"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	_ = v.RegisterValidation("sortkey", func(fl validator.FieldLevel) bool {
		_, err := cohort.ParseSortKey(fl.Field().String())
		return err == nil
	})
	return v
}

// bindView reads a viewQuery from the URL. pageSize is the default page size.
func bindView(values url.Values, pageSize int) (viewQuery, error) {
	q := viewQuery{
		County:   values.Get("county"),
		District: values.Get("district"),
		Tier:     values.Get("tier"),
		Poverty:  values.Get("poverty"),
		Search:   values.Get("search"),
		Sort:     values.Get("sort"),
		Dir:      strings.ToLower(values.Get("dir")),
		Page:     1,
		PageSize: pageSize,
	}
	var err error
	if q.Page, err = intParam(values, "page", q.Page); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(values, "page_size", q.PageSize); err != nil {
		return q, err
	}
	return q, nil
}

func bindRuns(values url.Values) (runsQuery, error) {
	q := runsQuery{Status: values.Get("status")}
	var err error
	if q.Limit, err = intParam(values, "limit", 0); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(values, "offset", 0); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(values url.Values, name string, def int) (int, error) {
	raw := values.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// validationMessages flattens validator errors into one line per field.
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "min":
			out = append(out, fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param()))
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "sortkey":
			out = append(out, fmt.Sprintf("%s is not a sortable column", fe.Field()))
		default:
			out = append(out, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return out
}
