package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/shoploom/internal/logging"
	"github.com/joshharrison/shoploom/internal/shop"
)

// Default gjson selectors for JSON snapshots.
const (
	DefaultJobsPath      = "jobs"
	DefaultResourcesPath = "resources"
)

// FileSource reads jobs and resources from a snapshot file. JSON files are
// read through gjson selectors so exports with a wrapping envelope (for
// example {"data":{"plans":[...]}}) can be pointed at with JobsPath
// "data.plans". YAML files are converted to JSON and read with the default
// selectors.
//
// A job with an unknown priority label or an unparseable date is still
// returned: the problem is carried on the job and Validate reports it, so
// one bad record never fails the whole load.
type FileSource struct {
	Path          string
	JobsPath      string
	ResourcesPath string
	Statuses      []string // schedulable statuses; empty means shop.SchedulableStatuses
	Log           logging.Printer
}

type snapshot struct {
	Jobs      []shop.Job
	Resources []shop.Resource
}

// LoadSchedulableJobs implements JobLoader.
func (f *FileSource) LoadSchedulableJobs(ctx context.Context, ids []string) ([]shop.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := f.read()
	if err != nil {
		return nil, err
	}
	return Select(snap.Jobs, ids, f.Statuses, f.Log), nil
}

// LoadResourceCatalog implements ResourceCatalog.
func (f *FileSource) LoadResourceCatalog(ctx context.Context) ([]shop.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := f.read()
	if err != nil {
		return nil, err
	}
	return snap.Resources, nil
}

func (f *FileSource) read() (*snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", f.Path, err)
	}
	jobsPath, resPath := f.JobsPath, f.ResourcesPath
	if !isJSON(f.Path, data) {
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", f.Path, err)
		}
		jobsPath, resPath = DefaultJobsPath, DefaultResourcesPath
	}
	snap, err := f.parseJSON(data, jobsPath, resPath)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", f.Path, err)
	}
	return snap, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert to JSON: %w", err)
	}
	return out, nil
}

func isJSON(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	}
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

func (f *FileSource) parseJSON(data []byte, jobsPath, resPath string) (*snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	if jobsPath == "" {
		jobsPath = DefaultJobsPath
	}
	if resPath == "" {
		resPath = DefaultResourcesPath
	}

	snap := &snapshot{}
	log := logging.OrDiscard(f.Log)
	gjson.GetBytes(data, jobsPath).ForEach(func(_, item gjson.Result) bool {
		j := parseJob(item)
		for _, p := range j.Problems {
			log.Printf("job %s: %s", j.ID, p)
		}
		snap.Jobs = append(snap.Jobs, j)
		return true
	})

	res := gjson.GetBytes(data, resPath)
	if res.Exists() {
		if err := json.Unmarshal([]byte(res.Raw), &snap.Resources); err != nil {
			return nil, fmt.Errorf("resources at %q: %w", resPath, err)
		}
	}
	return snap, nil
}

// parseJob reads one job object. Dates may be plain dates or RFC 3339
// timestamps; priority may be a label or its numeric weight. Fields that do
// not parse are left zero and noted in Problems.
func parseJob(r gjson.Result) shop.Job {
	j := shop.Job{
		ID:                    r.Get("id").String(),
		ExternalRef:           r.Get("external_ref").String(),
		ProductName:           r.Get("product_name").String(),
		Quantity:              int(r.Get("quantity").Int()),
		Unit:                  r.Get("unit").String(),
		Status:                r.Get("status").String(),
		EstimatedDurationDays: int(r.Get("estimated_duration_days").Int()),
		IsComplex:             r.Get("is_complex").Bool(),
		EligibleResourceTag:   r.Get("eligible_resource_tag").String(),
	}
	r.Get("dependencies").ForEach(func(_, dep gjson.Result) bool {
		j.Dependencies = append(j.Dependencies, dep.String())
		return true
	})

	switch p := r.Get("priority"); p.Type {
	case gjson.Number:
		j.Priority = shop.Priority(p.Int())
	case gjson.String:
		parsed, err := shop.ParsePriority(p.String())
		if err != nil {
			j.Problems = append(j.Problems, err.Error())
		}
		j.Priority = parsed
	}

	for _, field := range []struct {
		key string
		dst *time.Time
	}{
		{"due_date", &j.DueDate},
		{"earliest_start", &j.EarliestStart},
		{"latest_finish", &j.LatestFinish},
	} {
		t, err := parseTime(r.Get(field.key))
		if err != nil {
			j.Problems = append(j.Problems, fmt.Sprintf("%s: %v", field.key, err))
			continue
		}
		*field.dst = t
	}
	return j
}

func parseTime(r gjson.Result) (time.Time, error) {
	s := strings.TrimSpace(r.String())
	if !r.Exists() || s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
