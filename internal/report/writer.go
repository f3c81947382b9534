package report

import (
	"encoding/json"
	"fmt"

	"github.com/ralt/metasync/internal/models"
	"github.com/ralt/metasync/internal/signer"
	"github.com/ralt/metasync/internal/utils"
	"github.com/sirupsen/logrus"
)

// WriteFile writes result as indented JSON to path, gzipped when path ends
// in .gz. With a non-nil signer an armored detached signature over the bytes
// written goes to path + ".asc" and the armored public key to path + ".pub".
func WriteFile(path string, result *models.RunResult, s signer.Signer) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return models.NewError(models.ErrReportWrite, "", fmt.Errorf("failed to encode report: %w", err))
	}
	data = append(data, '\n')

	data, err = utils.EncodeForPath(path, data)
	if err != nil {
		return models.NewError(models.ErrReportWrite, "", fmt.Errorf("failed to compress report: %w", err))
	}

	if err := utils.WriteFile(path, data, 0644); err != nil {
		return models.NewError(models.ErrReportWrite, "", err)
	}
	logrus.WithField("sha256", utils.SHA256Hex(data)).Infof("Wrote run report to %s", path)

	if s == nil {
		return nil
	}

	sig, err := s.SignDetached(data)
	if err != nil {
		return models.NewError(models.ErrReportWrite, "", err)
	}
	sigPath := path + signer.SignatureExtension
	if err := utils.WriteFile(sigPath, sig, 0644); err != nil {
		return models.NewError(models.ErrReportWrite, "", err)
	}

	pub, err := s.GetPublicKey()
	if err != nil {
		return models.NewError(models.ErrReportWrite, "", fmt.Errorf("failed to export public key: %w", err))
	}
	if err := utils.WriteFile(path+signer.PublicKeyExtension, pub, 0644); err != nil {
		return models.NewError(models.ErrReportWrite, "", err)
	}
	logrus.WithField("key", s.Fingerprint()).Infof("Signed run report: %s", sigPath)
	return nil
}
