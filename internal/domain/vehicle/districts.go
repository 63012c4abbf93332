package vehicle

// Districts is the fixed list of the 25 administrative districts of Sri Lanka,
// used to validate the location a form client submits.
var Districts = []string{
	"Ampara",
	"Anuradhapura",
	"Badulla",
	"Batticaloa",
	"Colombo",
	"Galle",
	"Gampaha",
	"Hambantota",
	"Jaffna",
	"Kalutara",
	"Kandy",
	"Kegalle",
	"Kilinochchi",
	"Kurunegala",
	"Mannar",
	"Matale",
	"Matara",
	"Monaragala",
	"Mullaitivu",
	"Nuwara Eliya",
	"Polonnaruwa",
	"Puttalam",
	"Ratnapura",
	"Trincomalee",
	"Vavuniya",
}

var districtSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Districts))
	for _, d := range Districts {
		m[d] = struct{}{}
	}
	return m
}()

// ValidDistrict reports whether name is one of the 25 districts.
func ValidDistrict(name string) bool {
	_, ok := districtSet[name]
	return ok
}
