// Package archive builds the single-entry ZIP packages the transfer
// channel expects: one invoice XML per ZIP, with an MD5 content hash
// the provider verifies on receipt.
package archive

import (
	"archive/zip"
	"bytes"
	"crypto/md5"
	"encoding/hex"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("component", "efatura.archive")

// Package is a ready-to-submit document package.
type Package struct {
	Name    string // <documentID>.zip
	Data    []byte
	MD5Hash string // hex digest of Data
}

// PackDocument wraps the invoice XML in a DEFLATE ZIP with a single
// <documentID>.xml entry and hashes the resulting archive.
func PackDocument(documentID string, xml []byte) (*Package, error) {
	if len(xml) == 0 {
		return nil, errors.New("empty document content")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:   documentID + ".xml",
		Method: zip.Deflate,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create zip entry")
	}
	if _, err = entry.Write(xml); err != nil {
		return nil, errors.Wrap(err, "write zip entry")
	}
	if err = zw.Close(); err != nil {
		return nil, errors.Wrap(err, "finalize zip")
	}

	sum := md5.Sum(buf.Bytes())
	pkg := &Package{
		Name:    documentID + ".zip",
		Data:    buf.Bytes(),
		MD5Hash: hex.EncodeToString(sum[:]),
	}

	logger.WithFields(logrus.Fields{
		"name": pkg.Name,
		"size": len(pkg.Data),
	}).Debug("packed document")

	return pkg, nil
}
