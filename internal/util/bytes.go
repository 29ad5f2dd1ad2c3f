package util

// ZeroBytes overwrites b with zeros.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
