package rates

// Durations lists every coverage length, in months, a policy may be issued for.
var Durations = []int{1, 2, 3, 6, 12}

// DomesticVehicleCodes is the regulatory catalogue of domestic vehicle classes.
// A rate table must price every one of them.
var DomesticVehicleCodes = []string{
	"01a", "01b", "01c",
	"02a", "02b", "02c",
	"03a", "03b", "03c",
	"04a", "04b", "04c",
	"05a", "05b",
	"06", "07", "08", "09", "10",
	"11", "12", "13", "14", "15",
	"16", "17", "18", "19", "20",
	"21", "22", "23", "24", "25",
	"26", "27", "28", "29", "30",
	"31", "32", "33", "34", "35",
	"36",
}

// BorderVehicleTypes is the catalogue of classes for vehicles on foreign plates.
var BorderVehicleTypes = []string{"tourist", "motorcycle", "bus", "other"}

// IsDuration reports whether months is one of the issuable coverage lengths.
func IsDuration(months int) bool {
	for _, d := range Durations {
		if d == months {
			return true
		}
	}
	return false
}
