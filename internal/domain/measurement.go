package domain

// Spatial extent of the synthetic scene. The deformation center sits at the
// midpoint and is shared by the generator and the feature builder.
const (
	DomainMin = 0.0
	DomainMax = 10.0

	CenterX = (DomainMin + DomainMax) / 2
	CenterY = (DomainMin + DomainMax) / 2
)

// Column names of the final record table, in the order stages populate them.
const (
	ColX                     = "x"
	ColY                     = "y"
	ColTime                  = "time"
	ColPhase                 = "phase"
	ColTrueDeformation       = "true_deformation"
	ColDistanceToCenter      = "distance_to_center"
	ColAngleToCenter         = "angle_to_center"
	ColTimeSquared           = "time_squared"
	ColMeanPhaseNeighborhood = "mean_phase_neighborhood"
	ColStdPhaseNeighborhood  = "std_phase_neighborhood"
	ColPredictedDeformation  = "predicted_deformation"
	ColResidual              = "residual"
	ColIsAnomaly             = "is_anomaly"
)

// Measurement is one synthetic InSAR observation of one point at one time step.
type Measurement struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Time int     `json:"time"`

	// Phase is the wrapped observation plus atmospheric screen.
	Phase float64 `json:"phase"`

	// TrueDeformation is the ground-truth signal, known only because the
	// data is synthetic.
	TrueDeformation float64 `json:"true_deformation"`

	// Derived columns, filled by the feature builder.
	DistanceToCenter      float64 `json:"distance_to_center"`
	AngleToCenter         float64 `json:"angle_to_center"`
	TimeSquared           float64 `json:"time_squared"`
	MeanPhaseNeighborhood float64 `json:"mean_phase_neighborhood"`
	StdPhaseNeighborhood  float64 `json:"std_phase_neighborhood"`

	// Model outputs, filled by the anomaly detector.
	PredictedDeformation float64 `json:"predicted_deformation"`
	Residual             float64 `json:"residual"`
	IsAnomaly            bool    `json:"is_anomaly"`
}

// RecordSet is the shared record collection passed by reference through the
// pipeline. Stages append columns (and register their names), never rows.
type RecordSet struct {
	Records []Measurement
	columns []string
}

// NewRecordSet wraps generated records with their initial column names.
func NewRecordSet(records []Measurement, columns ...string) *RecordSet {
	return &RecordSet{Records: records, columns: columns}
}

// Len returns the number of records.
func (s *RecordSet) Len() int { return len(s.Records) }

// Columns returns the populated column names in population order.
func (s *RecordSet) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// HasColumn reports whether a column has been populated.
func (s *RecordSet) HasColumn(name string) bool {
	for _, c := range s.columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumns registers newly populated columns, skipping duplicates.
func (s *RecordSet) AddColumns(names ...string) {
	for _, n := range names {
		if !s.HasColumn(n) {
			s.columns = append(s.columns, n)
		}
	}
}
