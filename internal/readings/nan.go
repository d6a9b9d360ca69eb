package readings

import "regexp"

// The metering API serialises missing floats as a bare NaN token, which is
// not JSON. Object members and array elements are both patched.
var (
	nanMember  = regexp.MustCompile(`:\s*NaN\b`)
	nanElement = regexp.MustCompile(`([\[,]\s*)NaN(\s*[,\]])`)
)

// PatchNaN rewrites bare NaN tokens to null.
func PatchNaN(body []byte) []byte {
	body = nanMember.ReplaceAll(body, []byte(":null"))
	// Adjacent elements share a comma, so a second pass catches [NaN,NaN].
	for i := 0; i < 2; i++ {
		body = nanElement.ReplaceAll(body, []byte("${1}null${2}"))
	}
	return body
}
