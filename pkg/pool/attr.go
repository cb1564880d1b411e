package pool

// Key enumerates the optional descriptive attributes of a solvable.
type Key int

const (
	KeyNone Key = iota
	KeyName
	KeyEVR
	KeyArch
	KeySummary
	KeyDescription
	KeyLicense
	KeyURL
	KeyGroup
	KeyVendor
	KeyPackager
	KeyChecksum
	KeyPkgID
	KeyLocation
	KeyDownloadSize
	KeyInstallSize
	KeyBuildHost
	KeyBuildTime
	KeyFileList

	numKeys
)

var keyNames = [...]string{
	KeyNone:         "",
	KeyName:         "name",
	KeyEVR:          "evr",
	KeyArch:         "arch",
	KeySummary:      "summary",
	KeyDescription:  "description",
	KeyLicense:      "license",
	KeyURL:          "url",
	KeyGroup:        "group",
	KeyVendor:       "vendor",
	KeyPackager:     "packager",
	KeyChecksum:     "checksum",
	KeyPkgID:        "pkgid",
	KeyLocation:     "location",
	KeyDownloadSize: "downloadsize",
	KeyInstallSize:  "installsize",
	KeyBuildHost:    "buildhost",
	KeyBuildTime:    "buildtime",
	KeyFileList:     "filelist",
}

func (k Key) String() string {
	if k < 0 || k >= numKeys {
		return "unknown"
	}
	return keyNames[k]
}

// ParseKey maps an attribute name to its Key.
func ParseKey(name string) (Key, bool) {
	for i, n := range keyNames {
		if n == name && i != int(KeyNone) {
			return Key(i), true
		}
	}
	return KeyNone, false
}

// IsNumeric reports whether the attribute holds a number.
func (k Key) IsNumeric() bool {
	return k == KeyDownloadSize || k == KeyInstallSize || k == KeyBuildTime
}

// StringKeys are the attributes searched when no key is given.
var StringKeys = []Key{
	KeyName, KeySummary, KeyDescription, KeyLicense, KeyURL, KeyGroup,
	KeyVendor, KeyPackager, KeyChecksum, KeyPkgID, KeyLocation, KeyBuildHost,
}

// attrStore holds the sparse attributes of one solvable.
type attrStore struct {
	strs  map[Key]string
	nums  map[Key]uint64
	files []string
}

func (a *attrStore) setStr(k Key, v string) {
	if a.strs == nil {
		a.strs = make(map[Key]string)
	}
	a.strs[k] = v
}

func (a *attrStore) setNum(k Key, v uint64) {
	if a.nums == nil {
		a.nums = make(map[Key]uint64)
	}
	a.nums[k] = v
}

// merge applies the pending writes in o on top of a.
func (a *attrStore) merge(o *attrStore) {
	for k, v := range o.strs {
		a.setStr(k, v)
	}
	for k, v := range o.nums {
		a.setNum(k, v)
	}
	a.files = append(a.files, o.files...)
}
