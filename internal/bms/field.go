package bms

// Field identifies one queried quantity.
type Field int

const (
	FieldStateOfCharge Field = iota
	FieldCurrent
	FieldVoltage
	FieldCellVoltages
	FieldTemperatures
	FieldStatusFlags
	FieldFaultFlags
)

var fieldNames = map[Field]string{
	FieldStateOfCharge: "state_of_charge",
	FieldCurrent:       "current",
	FieldVoltage:       "voltage",
	FieldCellVoltages:  "cell_voltages",
	FieldTemperatures:  "temperatures",
	FieldStatusFlags:   "status_flags",
	FieldFaultFlags:    "fault_flags",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// Query pairs a command with the tag its response carries.
type Query struct {
	Field   Field
	Command string
	Tag     string
}

// Queries is the fixed order in which one cycle interrogates the device.
var Queries = []Query{
	{Field: FieldStateOfCharge, Command: "?BSC\r", Tag: "BSC="},
	{Field: FieldCurrent, Command: "?A 1\r", Tag: "A="},
	{Field: FieldVoltage, Command: "?V 1\r", Tag: "V="},
	{Field: FieldCellVoltages, Command: "?V\r", Tag: "V="},
	{Field: FieldTemperatures, Command: "?T\r", Tag: "T="},
	{Field: FieldStatusFlags, Command: "?FS\r", Tag: "FS="},
	{Field: FieldFaultFlags, Command: "?FF\r", Tag: "FF="},
}

// QueryFor returns the query for field.
func QueryFor(field Field) (Query, bool) {
	for _, q := range Queries {
		if q.Field == field {
			return q, true
		}
	}
	return Query{}, false
}
