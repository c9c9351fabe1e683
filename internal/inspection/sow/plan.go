package sow

import (
	"sort"

	"github.com/bitfantasy/aims/internal/inspection/entity"
)

// SavePlan 保存时需要执行的写操作。Upserts 中 ID 为空的是新建项。
type SavePlan struct {
	Upserts []entity.SOWItem
	Deletes []entity.SOWItem
}

// Empty 是否无需任何写操作
func (p *SavePlan) Empty() bool {
	return len(p.Upserts) == 0 && len(p.Deletes) == 0
}

func itemTriple(item *entity.SOWItem) Triple {
	report := item.ReportNumber
	if report == "" {
		report = NullReport
	}
	return Triple{Report: report, ComponentID: item.ComponentID, InspectionTypeID: item.InspectionTypeID}
}

// Plan 将当前选择与已持久化检验项对账：每个 (报告, 构件, 检验类型) 组合对应一条
// 检验项，已存在的按组合匹配更新（不修改构件和检验类型），未出现在选择中的删除。
func (e *Editor) Plan(existing []entity.SOWItem) SavePlan {
	groups := make(map[Triple][]Scope)
	for k := range e.selected {
		groups[k.Triple] = append(groups[k.Triple], k.Scope)
	}

	byTriple := make(map[Triple]*entity.SOWItem, len(existing))
	for i := range existing {
		t := itemTriple(&existing[i])
		if _, dup := byTriple[t]; !dup {
			byTriple[t] = &existing[i]
		}
	}

	triples := make([]Triple, 0, len(groups))
	for t := range groups {
		triples = append(triples, t)
	}
	sort.Slice(triples, func(i, j int) bool {
		a, b := triples[i], triples[j]
		if a.Report != b.Report {
			return a.Report < b.Report
		}
		if a.ComponentID != b.ComponentID {
			return a.ComponentID < b.ComponentID
		}
		return a.InspectionTypeID < b.InspectionTypeID
	})

	var plan SavePlan
	for _, t := range triples {
		scopes := groups[t]
		prev := byTriple[t]

		var item entity.SOWItem
		if prev != nil {
			item = *prev
		} else {
			item = entity.SOWItem{
				ComponentID:      t.ComponentID,
				InspectionTypeID: t.InspectionTypeID,
				Status:           entity.SOWStatusPending,
			}
			if t.Report != NullReport {
				item.ReportNumber = t.Report
			}
		}

		item.ElevationRequired = requiresElevation(scopes)
		item.ElevationData = nil
		if item.ElevationRequired {
			item.ElevationData = buildSegments(scopes, prev)
		}
		plan.Upserts = append(plan.Upserts, item)
	}

	for i := range existing {
		t := itemTriple(&existing[i])
		if _, keep := groups[t]; keep && byTriple[t] == &existing[i] {
			continue
		}
		plan.Deletes = append(plan.Deletes, existing[i])
	}
	return plan
}

// requiresElevation 分组中没有整根构件且至少有一个分段
func requiresElevation(scopes []Scope) bool {
	if len(scopes) == 0 {
		return false
	}
	for _, s := range scopes {
		if s.IsWhole() {
			return false
		}
	}
	return true
}

// buildSegments 生成分段数据，状态沿用已存在的同一分段，否则为 pending
func buildSegments(scopes []Scope, prev *entity.SOWItem) []entity.ElevationSegment {
	sorted := make([]Scope, len(scopes))
	copy(sorted, scopes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	segs := make([]entity.ElevationSegment, 0, len(sorted))
	for _, s := range sorted {
		seg := entity.ElevationSegment{Start: s.Start, End: s.End, Status: entity.SOWStatusPending}
		if prev != nil {
			for _, old := range prev.ElevationData {
				if Range(old.Start, old.End) == s {
					seg = old
					seg.Start, seg.End = s.Start, s.End
					if seg.Status == "" {
						seg.Status = entity.SOWStatusPending
					}
					break
				}
			}
		}
		segs = append(segs, seg)
	}
	return segs
}

// TrackedComponents 返回各报告已添加的构件，用于持久化到表头
func (e *Editor) TrackedComponents() map[string][]string {
	out := make(map[string][]string, len(e.componentsMap))
	for report := range e.componentsMap {
		out[report] = e.ComponentIDs(report)
	}
	return out
}
