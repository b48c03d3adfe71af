package core

// RecordStatus is the overall outcome for one table's metadata record.
type RecordStatus string

// Record status constants.
const (
	// RecordStatusSuccess means the descriptor and every requested
	// enrichment completed with data.
	RecordStatusSuccess RecordStatus = "success"
	// RecordStatusPartial means the descriptor succeeded but at least one
	// enrichment failed or returned no data.
	RecordStatusPartial RecordStatus = "partial"
	// RecordStatusFailed means the descriptor itself could not be obtained.
	RecordStatusFailed RecordStatus = "failed"
)

// SectionState is the outcome of one section (descriptor, statistics, usage)
// within a record.
type SectionState string

const (
	// SectionOK means the section completed with data.
	SectionOK SectionState = "ok"
	// SectionAbsent means the lookup completed but the source had no data
	// for this table (e.g. audit logging disabled, view without statistics).
	SectionAbsent SectionState = "absent"
	// SectionFailed means the lookup errored.
	SectionFailed SectionState = "failed"
	// SectionSkipped means the lookup was never attempted, either because it
	// was not requested or because the descriptor failed first.
	SectionSkipped SectionState = "skipped"
)

// SectionResult records the outcome of one section of a record.
type SectionResult struct {
	State  SectionState `json:"state"`
	Reason string       `json:"reason,omitempty"`
}

// TableMetadataRecord is the merged per-table result: the authoritative
// descriptor plus optional statistics and usage enrichment, with the outcome
// of each section. Records are written once during a run and immutable after.
type TableMetadataRecord struct {
	Ref        TableRef         `json:"ref"`
	Descriptor *TableDescriptor `json:"descriptor"`
	Statistics *TableStatistics `json:"statistics"`
	Usage      *UsageRecord     `json:"usage"`

	DescriptorSection SectionResult `json:"descriptor_section"`
	StatisticsSection SectionResult `json:"statistics_section"`
	UsageSection      SectionResult `json:"usage_section"`

	Status RecordStatus `json:"status"`
	// Reason explains a failed record. Empty for success and partial records;
	// section-level reasons live on the sections.
	Reason string `json:"reason,omitempty"`
}

// FailedRecord builds a record for a table whose descriptor could not be
// obtained. Statistics and usage are marked skipped, never attempted.
func FailedRecord(ref TableRef, reason string) TableMetadataRecord {
	return TableMetadataRecord{
		Ref:               ref,
		DescriptorSection: SectionResult{State: SectionFailed, Reason: reason},
		StatisticsSection: SectionResult{State: SectionSkipped, Reason: "descriptor unavailable"},
		UsageSection:      SectionResult{State: SectionSkipped, Reason: "descriptor unavailable"},
		Status:            RecordStatusFailed,
		Reason:            reason,
	}
}
