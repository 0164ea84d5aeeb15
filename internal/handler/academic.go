package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/config"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/ipfs"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/middleware"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// allowedDocTypes lists the file extensions accepted for document
// upload, keyed without the leading dot.
var allowedDocTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"txt":  true,
	"md":   true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// AcademicHandler owns the document-NFT marketplace routes. Listing
// and token queries are served from the contract deployment file; the
// chain itself is not consulted.
type AcademicHandler struct {
	IPFS    *ipfs.Client
	Upload  config.UploadConfig
	DeployF string
	Log     *logrus.Logger
}

func NewAcademicHandler(ipfsClient *ipfs.Client, upload config.UploadConfig, deploymentFile string, log *logrus.Logger) *AcademicHandler {
	return &AcademicHandler{
		IPFS:    ipfsClient,
		Upload:  upload,
		DeployF: deploymentFile,
		Log:     log,
	}
}

type deployment struct {
	ContractAddress string `json:"contractAddress"`
	Network         string `json:"network"`
	ChainID         int64  `json:"chainId"`
	DeployedAt      string `json:"deployedAt"`
	Deployer        string `json:"deployer"`
}

func (h *AcademicHandler) loadDeployment() (*deployment, error) {
	data, err := os.ReadFile(h.DeployF)
	if err != nil {
		return nil, err
	}
	var d deployment
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetContractInfo returns the marketplace contract parameters the
// frontend needs before minting.
func (h *AcademicHandler) GetContractInfo(c *gin.Context) {
	info := util.Response{
		"mintPrice":          "0.01",
		"platformFeePercent": 1,
		"maxRoyaltyPercent":  20,
		"supportedFileTypes": []string{"pdf", "docx", "txt", "md", "png", "jpg", "jpeg"},
		"maxFileSizeMB":      h.Upload.MaxSizeMB,
	}

	d, err := h.loadDeployment()
	if err != nil {
		h.Log.WithError(err).Warn("contract deployment file unavailable")
		info["deployed"] = false
	} else {
		info["deployed"] = true
		info["contractAddress"] = d.ContractAddress
		info["network"] = d.Network
		info["chainId"] = d.ChainID
	}

	util.OK(c, util.Response{"contract": info})
}

// normalizeRoyalty converts the royalty form field to whole percent.
// Values above 100 are read as basis points (10000 = 100%), values
// strictly between 0 and 1 as a decimal fraction, everything else as
// percent. The result is floored and must land in 0-20%.
func normalizeRoyalty(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid royalty")
	}
	switch {
	case v > 100:
		v = math.Floor(v / 100)
	case v > 0 && v < 1:
		v = math.Floor(v * 100)
	default:
		v = math.Floor(v)
	}
	if v < 0 || v > 20 {
		return 0, fmt.Errorf("royalty out of range")
	}
	return v, nil
}

// UploadDocument pins a document and its NFT metadata, returning both
// hashes so the client can mint. The file passes through a temp copy
// that is always removed.
func (h *AcademicHandler) UploadDocument(c *gin.Context) {
	if !h.IPFS.Configured() {
		util.Error(c, http.StatusServiceUnavailable, "Document storage is not configured")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		util.ValidationFailed(c, []util.FieldError{{Field: "file", Message: "Document file is required"}})
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	if !allowedDocTypes[ext] {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "file", Message: "Unsupported file type. Allowed: pdf, docx, txt, md, png, jpg, jpeg"},
		})
		return
	}

	maxSize := h.Upload.MaxSizeMB << 20
	if file.Size > maxSize {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "file", Message: fmt.Sprintf("File exceeds the %dMB limit", h.Upload.MaxSizeMB)},
		})
		return
	}

	name := c.PostForm("name")
	description := c.PostForm("description")
	if name == "" || description == "" {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "name", Message: "Name and description are required"},
		})
		return
	}

	royalty, err := normalizeRoyalty(c.PostForm("royaltyPercent"))
	if err != nil {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "royaltyPercent", Message: "Royalty must be between 0 and 20 percent"},
		})
		return
	}

	if err := os.MkdirAll(h.Upload.Dir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to upload document")
		return
	}
	tmpPath := filepath.Join(h.Upload.Dir, uuid.NewString()+"."+ext)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to upload document")
		return
	}
	defer os.Remove(tmpPath)

	f, err := os.Open(tmpPath)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to upload document")
		return
	}
	defer f.Close()

	filePin, err := h.IPFS.PinFile(c.Request.Context(), f, file.Filename)
	if err != nil {
		h.Log.WithError(err).Error("pin document file")
		util.Error(c, http.StatusInternalServerError, "Failed to store document on IPFS")
		return
	}

	creator := ""
	if user := middleware.CurrentUser(c); user != nil {
		creator = user.WalletAddress
	}

	metadata := map[string]interface{}{
		"name":        name,
		"description": description,
		"image":       filePin.URL,
		"attributes": []map[string]interface{}{
			{"trait_type": "File Type", "value": ext},
			{"trait_type": "File Size", "value": file.Size},
			{"trait_type": "Royalty Percent", "value": royalty},
			{"trait_type": "Uploaded At", "value": time.Now().UTC().Format(time.RFC3339)},
		},
	}
	if creator != "" {
		metadata["creator"] = creator
	}

	metaPin, err := h.IPFS.PinJSON(c.Request.Context(), metadata)
	if err != nil {
		h.Log.WithError(err).Error("pin nft metadata")
		util.Error(c, http.StatusInternalServerError, "Failed to store metadata on IPFS")
		return
	}

	util.Created(c, "Document uploaded successfully", util.Response{
		"file": util.Response{
			"ipfsHash": filePin.IpfsHash,
			"url":      filePin.URL,
			"size":     filePin.PinSize,
		},
		"metadata": util.Response{
			"ipfsHash": metaPin.IpfsHash,
			"url":      metaPin.URL,
		},
		"royaltyPercent": royalty,
	})
}

// GetListings returns marketplace listings. Listings live on-chain;
// until an indexer exists the route returns an empty page so the
// frontend can render.
func (h *AcademicHandler) GetListings(c *gin.Context) {
	limit, offset, ferr := util.ParseLimitOffset(c, 20, 100)
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	util.OK(c, util.Response{
		"listings":   []util.Response{},
		"pagination": util.NewPagination(0, limit, offset),
	})
}

// GetMyNFTs returns the caller's minted documents. Token ownership is
// on-chain; the backend has no indexer, so the list is empty and the
// frontend reads the wallet directly.
func (h *AcademicHandler) GetMyNFTs(c *gin.Context) {
	user := middleware.CurrentUser(c)

	util.OK(c, util.Response{
		"walletAddress": user.WalletAddress,
		"nfts":          []util.Response{},
	})
}

// GetNFT returns token details for a given ID from the deployment
// info. Metadata itself lives on IPFS.
func (h *AcademicHandler) GetNFT(c *gin.Context) {
	tokenID, err := strconv.ParseInt(c.Param("tokenId"), 10, 64)
	if err != nil || tokenID < 0 {
		util.ValidationFailed(c, []util.FieldError{{Field: "tokenId", Message: "Invalid token ID"}})
		return
	}

	d, err := h.loadDeployment()
	if err != nil {
		util.Error(c, http.StatusNotFound, "Contract is not deployed")
		return
	}

	util.OK(c, util.Response{
		"tokenId":         tokenID,
		"contractAddress": d.ContractAddress,
		"network":         d.Network,
		"chainId":         d.ChainID,
	})
}

// TestIPFS verifies pinning credentials by pinning a tiny JSON doc.
func (h *AcademicHandler) TestIPFS(c *gin.Context) {
	if !h.IPFS.Configured() {
		util.Error(c, http.StatusServiceUnavailable, "IPFS credentials are not configured")
		return
	}

	result, err := h.IPFS.PinJSON(c.Request.Context(), map[string]string{
		"test":      "connectivity",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.Log.WithError(err).Error("ipfs connectivity test")
		util.Error(c, http.StatusInternalServerError, "IPFS connection failed")
		return
	}

	util.OKMessage(c, "IPFS connection successful", util.Response{
		"ipfsHash": result.IpfsHash,
		"url":      result.URL,
	})
}
