package runtime

// Parameters is the client configuration installed at Init. Copied by value;
// reset to the zero value at shutdown.
type Parameters struct {
	APIID   int32
	APIHash string

	DatabaseDirectory string

	UseTestDC      bool
	UseFileDB      bool
	UseSecretChats bool
}
