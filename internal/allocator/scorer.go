package allocator

import "github.com/joshharrison/shoploom/internal/shop"

// MaxSkillScore is the weight of the skill component in a resource score.
const MaxSkillScore = 0.3

// ResourceScorer supplies the skill component of a resource score, in
// [0, MaxSkillScore]. Capacity and idleness are scored by the allocator.
type ResourceScorer interface {
	SkillScore(job *shop.Job, res *shop.Resource) float64
}

// FlatSkill scores every resource the same. It is the default scorer.
type FlatSkill struct{}

// SkillScore implements ResourceScorer.
func (FlatSkill) SkillScore(*shop.Job, *shop.Resource) float64 {
	return MaxSkillScore
}

// TagSkill prefers resources whose tag set names the job's product. Jobs
// without a product name score flat.
type TagSkill struct{}

// SkillScore implements ResourceScorer.
func (TagSkill) SkillScore(job *shop.Job, res *shop.Resource) float64 {
	if job.ProductName == "" {
		return MaxSkillScore
	}
	for _, t := range res.Tags {
		if t == job.ProductName {
			return MaxSkillScore
		}
	}
	return MaxSkillScore / 2
}

// ScorerFor maps a config name to a scorer: "flat" (default) or "tags".
func ScorerFor(name string) (ResourceScorer, bool) {
	switch name {
	case "", "flat":
		return FlatSkill{}, true
	case "tags":
		return TagSkill{}, true
	}
	return nil, false
}
