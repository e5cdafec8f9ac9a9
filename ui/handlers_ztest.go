package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"zhypo/domain/ztest"
	"zhypo/internal/errors"

	"github.com/gin-gonic/gin"
)

// flexFloat accepts both JSON numbers and numeric strings ("105")
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexInt accepts integral JSON numbers and integer strings ("36")
type flexInt int

func (i *flexInt) UnmarshalJSON(b []byte) error {
	var f flexFloat
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	v := float64(f)
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return fmt.Errorf("%v is not an integer", v)
	}
	*i = flexInt(v)
	return nil
}

type calculateRequest struct {
	SampleMean        *flexFloat  `json:"sample_mean"`
	PopulationMean    *flexFloat  `json:"population_mean" binding:"required"`
	PopulationStdDev  *flexFloat  `json:"population_std_dev" binding:"required"`
	SampleSize        *flexInt    `json:"sample_size"`
	SignificanceLevel *flexFloat  `json:"significance_level" binding:"required"`
	TestType          string      `json:"test_type" binding:"required"`
	Approach          string      `json:"approach" binding:"required"`
	Observations      []flexFloat `json:"observations"`
}

func (r *calculateRequest) baseInput() ztest.TestInput {
	in := ztest.TestInput{
		HypothesizedMean:  float64(*r.PopulationMean),
		PopulationSD:      float64(*r.PopulationStdDev),
		SignificanceLevel: float64(*r.SignificanceLevel),
		Alternative:       ztest.Alternative(r.TestType).Normalize(),
		Approach:          ztest.Approach(r.Approach).Normalize(),
	}
	if r.SampleMean != nil {
		in.SampleMean = float64(*r.SampleMean)
	}
	if r.SampleSize != nil {
		in.SampleSize = int(*r.SampleSize)
	}
	return in
}

// handleCalculate evaluates a z-test from summary statistics or, when
// "observations" is present, from raw data
func (s *Server) handleCalculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("[handleCalculate] bad request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data: " + err.Error(), "code": errors.CodeValidationError})
		return
	}

	input := req.baseInput()
	ctx := c.Request.Context()

	if len(req.Observations) > 0 {
		observations := make([]float64, len(req.Observations))
		for i, v := range req.Observations {
			observations[i] = float64(v)
		}
		report, err := s.service.EvaluateObservations(ctx, input, observations)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	if req.SampleMean == nil || req.SampleSize == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sample_mean and sample_size are required unless observations are provided", "code": errors.CodeValidationError})
		return
	}

	report, err := s.service.Evaluate(ctx, input)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleCalculateUpload evaluates a z-test on one column of an uploaded
// .xlsx or .csv file (multipart field "file")
func (s *Server) handleCalculateUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.upload.MaxBytes+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "code": errors.CodeValidationError})
		return
	}
	if fileHeader.Size > s.upload.MaxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File size (%.1f MB) exceeds the %.1f MB limit",
			float64(fileHeader.Size)/(1024*1024), float64(s.upload.MaxBytes)/(1024*1024)), "code": errors.CodeValidationError})
		return
	}

	input, err := formInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": errors.CodeValidationError})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	report, err := s.service.EvaluateUpload(c.Request.Context(), input, file, fileHeader.Filename, c.PostForm("column"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func formInput(c *gin.Context) (ztest.TestInput, error) {
	in := ztest.TestInput{
		Alternative: ztest.Alternative(c.PostForm("test_type")).Normalize(),
		Approach:    ztest.Approach(c.PostForm("approach")).Normalize(),
	}
	if in.Alternative == "" || in.Approach == "" {
		return in, fmt.Errorf("test_type and approach are required")
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"population_mean", &in.HypothesizedMean},
		{"population_std_dev", &in.PopulationSD},
		{"significance_level", &in.SignificanceLevel},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(c.PostForm(f.name))
		if raw == "" {
			return in, fmt.Errorf("%s is required", f.name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, fmt.Errorf("%s must be a number", f.name)
		}
		*f.dst = v
	}
	return in, nil
}

func (s *Server) respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		status = http.StatusBadRequest
	default:
		s.logger.Error("[%s] %v", c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
