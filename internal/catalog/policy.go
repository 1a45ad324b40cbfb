package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// SubtypeID is the stable identifier of a special-case subtype. Requirement
// lookups go through this ID so a relabelled catalog entry fails Verify
// instead of silently dropping its rules.
type SubtypeID string

const (
	SubtypeLowAttendance          SubtypeID = "warning_low_attendance"
	SubtypeMisconduct             SubtypeID = "warning_misconduct"
	SubtypeIncompleteAssignment   SubtypeID = "warning_incomplete_assignment"
	SubtypePunctuality            SubtypeID = "warning_punctuality"
	SubtypeCommitteeMember        SubtypeID = "committee_member"
	SubtypeCommitteeHead          SubtypeID = "committee_head"
	SubtypeBestPerformance        SubtypeID = "appreciation_best_performance"
	SubtypeConsistentPerformance  SubtypeID = "appreciation_consistent_performance"
	SubtypeOutstandingPerformance SubtypeID = "appreciation_outstanding_performance"
	SubtypeConcernLowPerformance  SubtypeID = "concern_low_performance"
	SubtypeInternshipCompletion   SubtypeID = "internship_completion"
	SubtypeCourseCompletion       SubtypeID = "course_completion"
	SubtypeOffer                  SubtypeID = "offer"
	SubtypeInternshipOffer        SubtypeID = "internship_offer"
	SubtypeExperience             SubtypeID = "experience"
	SubtypeRelieving              SubtypeID = "relieving"
	SubtypeAppreciation           SubtypeID = "appreciation"
)

// DatePair is a start/end pair where End must not precede Start.
type DatePair struct {
	Start Field
	End   Field
}

// Requirement describes the situational fields a subtype uses.
type Requirement struct {
	Required  []Field
	Optional  []Field
	DatePairs []DatePair
}

type policyEntry struct {
	label string
	req   Requirement
}

var policy = map[SubtypeID]policyEntry{
	SubtypeLowAttendance: {
		label: "Warning for Low Attendance",
		req:   Requirement{Required: []Field{FieldAttendancePercent}},
	},
	SubtypeMisconduct: {
		label: "Warning for Misconduct",
		req:   Requirement{Required: []Field{FieldMisconductReason}},
	},
	SubtypeIncompleteAssignment: {
		label: "Warning for Incomplete Assignment",
		req:   Requirement{Required: []Field{FieldAssignmentName, FieldDueDate}},
	},
	SubtypePunctuality: {
		label: "Warning for Punctuality",
		req:   Requirement{Required: []Field{FieldMonth}, Optional: []Field{FieldReason}},
	},
	SubtypeCommitteeMember: {
		label: "Committee Member",
		req:   Requirement{Required: []Field{FieldCommitteeType, FieldRole}},
	},
	SubtypeCommitteeHead: {
		label: "Committee Head",
		req:   Requirement{Required: []Field{FieldCommitteeType, FieldRole}},
	},
	SubtypeBestPerformance: {
		label: "Appreciation for Best Performance",
		req:   Requirement{Required: []Field{FieldMonth}, Optional: []Field{FieldPerformanceRating}},
	},
	SubtypeConsistentPerformance: {
		label: "Appreciation for Consistent Performance",
		req: Requirement{
			Required:  []Field{FieldStartDate, FieldEndDate},
			DatePairs: []DatePair{{FieldStartDate, FieldEndDate}},
		},
	},
	SubtypeOutstandingPerformance: {
		label: "Appreciation for Outstanding Performance",
		req:   Requirement{Required: []Field{FieldProjectName}, Optional: []Field{FieldDescription}},
	},
	SubtypeConcernLowPerformance: {
		label: "Concern for Low Performance",
		req:   Requirement{Required: []Field{FieldSubject, FieldReason}},
	},
	SubtypeInternshipCompletion: {
		label: "Internship Completion Certificate",
		req: Requirement{
			Required:  []Field{FieldRole, FieldStartDate, FieldEndDate, FieldProjectName},
			Optional:  []Field{FieldDescription},
			DatePairs: []DatePair{{FieldStartDate, FieldEndDate}},
		},
	},
	SubtypeCourseCompletion: {
		label: "Course Completion Certificate",
		req: Requirement{
			Required:  []Field{FieldTrainingStartDate, FieldTrainingEndDate},
			DatePairs: []DatePair{{FieldTrainingStartDate, FieldTrainingEndDate}},
		},
	},
	SubtypeOffer: {
		label: "Offer Letter",
		req:   Requirement{Required: []Field{FieldRole, FieldJoiningDate, FieldAmount}},
	},
	SubtypeInternshipOffer: {
		label: "Internship Offer Letter",
		req: Requirement{
			Required: []Field{FieldRole, FieldStartDate, FieldDuration},
			Optional: []Field{FieldStipend},
		},
	},
	SubtypeExperience: {
		label: "Experience Letter",
		req: Requirement{
			Required:  []Field{FieldRole, FieldJoiningDate, FieldLastWorkingDate},
			DatePairs: []DatePair{{FieldJoiningDate, FieldLastWorkingDate}},
		},
	},
	SubtypeRelieving: {
		label: "Relieving Letter",
		req:   Requirement{Required: []Field{FieldRole, FieldLastWorkingDate}, Optional: []Field{FieldReason}},
	},
	SubtypeAppreciation: {
		label: "Appreciation Letter",
		req:   Requirement{Optional: []Field{FieldDescription}},
	},
}

var policyByLabel = func() map[string]SubtypeID {
	m := make(map[string]SubtypeID, len(policy))
	for id, e := range policy {
		m[e.label] = id
	}
	return m
}()

// Lookup resolves a course label to its stable subtype ID.
func Lookup(course string) (SubtypeID, bool) {
	id, ok := policyByLabel[course]
	return id, ok
}

// RequirementFor returns the requirement descriptor for course. Courses
// without special rules get an empty descriptor.
func RequirementFor(course string) Requirement {
	id, ok := policyByLabel[course]
	if !ok {
		return Requirement{}
	}
	return policy[id].req
}

// RequiredFields returns the set of fields course requires.
func RequiredFields(course string) map[Field]bool {
	req := RequirementFor(course)
	out := make(map[Field]bool, len(req.Required))
	for _, f := range req.Required {
		out[f] = true
	}
	return out
}

// Requires reports whether course requires f.
func Requires(course string, f Field) bool {
	return RequiredFields(course)[f]
}

// Allowed returns every field that may hold a value while course is selected:
// type-wide fields plus the course's required and optional fields.
func Allowed(course string) map[Field]bool {
	out := map[Field]bool{FieldIssueDate: true}
	if course == "" {
		return out
	}
	req := RequirementFor(course)
	for _, f := range req.Required {
		out[f] = true
	}
	for _, f := range req.Optional {
		out[f] = true
	}
	return out
}

// Verify checks that the policy table and the catalog agree: every policy
// label must be offered by the catalog and every field it names must exist.
func (c *Catalog) Verify() error {
	labels := make(map[string]bool)
	for _, l := range c.Labels() {
		labels[l] = true
	}
	var problems []string
	for id, e := range policy {
		if !labels[e.label] {
			problems = append(problems, fmt.Sprintf("%s: label %q not in catalog", id, e.label))
		}
		for _, f := range append(append([]Field{}, e.req.Required...), e.req.Optional...) {
			if !Known(f) {
				problems = append(problems, fmt.Sprintf("%s: unknown field %q", id, f))
			}
		}
		for _, p := range e.req.DatePairs {
			if s, _ := Spec(p.Start); s.Kind != KindDate {
				problems = append(problems, fmt.Sprintf("%s: %q is not a date", id, p.Start))
			}
			if s, _ := Spec(p.End); s.Kind != KindDate {
				problems = append(problems, fmt.Sprintf("%s: %q is not a date", id, p.End))
			}
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("catalog policy mismatch: %s", strings.Join(problems, "; "))
	}
	return nil
}
