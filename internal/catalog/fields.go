package catalog

// Field names a situational form field. The string value doubles as the
// JSON key sent to the backend.
type Field string

const (
	FieldIssueDate         Field = "issueDate"
	FieldStartDate         Field = "startDate"
	FieldEndDate           Field = "endDate"
	FieldTrainingStartDate Field = "trainingStartDate"
	FieldTrainingEndDate   Field = "trainingEndDate"
	FieldJoiningDate       Field = "joiningDate"
	FieldLastWorkingDate   Field = "lastWorkingDate"
	FieldDueDate           Field = "dueDate"
	FieldAttendancePercent Field = "attendancePercent"
	FieldMisconductReason  Field = "misconductReason"
	FieldCommitteeType     Field = "committeeType"
	FieldRole              Field = "role"
	FieldProjectName       Field = "projectName"
	FieldDescription       Field = "description"
	FieldStipend           Field = "stipend"
	FieldAmount            Field = "amount"
	FieldDuration          Field = "duration"
	FieldSubject           Field = "subject"
	FieldReason            Field = "reason"
	FieldMonth             Field = "month"
	FieldAssignmentName    Field = "assignmentName"
	FieldPerformanceRating Field = "performanceRating"
)

// Kind describes how a field value is parsed and sent.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindNumber
)

// FieldSpec is the static description of a situational field.
type FieldSpec struct {
	Label     string
	Kind      Kind
	MaxLength int // 0 means no ceiling
	Min, Max  float64
	HasRange  bool
}

var fieldSpecs = map[Field]FieldSpec{
	FieldIssueDate:         {Label: "Issue date", Kind: KindDate},
	FieldStartDate:         {Label: "Start date", Kind: KindDate},
	FieldEndDate:           {Label: "End date", Kind: KindDate},
	FieldTrainingStartDate: {Label: "Training start date", Kind: KindDate},
	FieldTrainingEndDate:   {Label: "Training end date", Kind: KindDate},
	FieldJoiningDate:       {Label: "Joining date", Kind: KindDate},
	FieldLastWorkingDate:   {Label: "Last working date", Kind: KindDate},
	FieldDueDate:           {Label: "Due date", Kind: KindDate},
	FieldAttendancePercent: {Label: "Attendance percentage", Kind: KindNumber, Min: 0, Max: 100, HasRange: true},
	FieldMisconductReason:  {Label: "Misconduct reason", Kind: KindText, MaxLength: 70},
	FieldCommitteeType:     {Label: "Committee", Kind: KindText, MaxLength: 80},
	FieldRole:              {Label: "Role", Kind: KindText, MaxLength: 80},
	FieldProjectName:       {Label: "Project name", Kind: KindText, MaxLength: 120},
	FieldDescription:       {Label: "Description", Kind: KindText, MaxLength: 1050},
	FieldStipend:           {Label: "Stipend", Kind: KindNumber, Min: 0, Max: 10000000, HasRange: true},
	FieldAmount:            {Label: "Amount", Kind: KindNumber, Min: 0, Max: 100000000, HasRange: true},
	FieldDuration:          {Label: "Duration (months)", Kind: KindNumber, Min: 1, Max: 24, HasRange: true},
	FieldSubject:           {Label: "Subject", Kind: KindText, MaxLength: 150},
	FieldReason:            {Label: "Reason", Kind: KindText, MaxLength: 300},
	FieldMonth:             {Label: "Month", Kind: KindText, MaxLength: 20},
	FieldAssignmentName:    {Label: "Assignment name", Kind: KindText, MaxLength: 120},
	FieldPerformanceRating: {Label: "Performance rating", Kind: KindNumber, Min: 1, Max: 10, HasRange: true},
}

// Spec returns the static description of f.
func Spec(f Field) (FieldSpec, bool) {
	s, ok := fieldSpecs[f]
	return s, ok
}

// Known reports whether f is a recognised situational field.
func Known(f Field) bool {
	_, ok := fieldSpecs[f]
	return ok
}

// Label returns the human label of f, or the raw name if unknown.
func Label(f Field) string {
	if s, ok := fieldSpecs[f]; ok {
		return s.Label
	}
	return string(f)
}

// TypeWide reports whether f applies to every subtype of a letter type and
// therefore survives a subtype change.
func TypeWide(f Field) bool {
	return f == FieldIssueDate
}

var fieldOrder = []Field{
	FieldIssueDate,
	FieldStartDate,
	FieldEndDate,
	FieldTrainingStartDate,
	FieldTrainingEndDate,
	FieldJoiningDate,
	FieldLastWorkingDate,
	FieldDueDate,
	FieldAttendancePercent,
	FieldMisconductReason,
	FieldCommitteeType,
	FieldRole,
	FieldProjectName,
	FieldDescription,
	FieldStipend,
	FieldAmount,
	FieldDuration,
	FieldSubject,
	FieldReason,
	FieldMonth,
	FieldAssignmentName,
	FieldPerformanceRating,
}

// Fields returns every situational field in display order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}
