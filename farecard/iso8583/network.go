package iso8583

import (
	"io"

	"github.com/moov-io/iso8583/network"
)

// Messages on the gate link are framed with a 2-byte binary length header.

func readMessageLength(r io.Reader) (int, error) {
	header := network.NewBinary2BytesHeader()
	_, err := header.ReadFrom(r)
	if err != nil {
		return 0, err
	}
	return header.Length(), nil
}

func writeMessageLength(w io.Writer, length int) (int, error) {
	header := network.NewBinary2BytesHeader()
	header.SetLength(length)
	return header.WriteTo(w)
}
