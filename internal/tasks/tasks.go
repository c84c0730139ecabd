package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/priyanshu-0212/my-agri-portal/internal/config"
	"github.com/priyanshu-0212/my-agri-portal/internal/email"
	"github.com/priyanshu-0212/my-agri-portal/internal/services"
	"github.com/priyanshu-0212/my-agri-portal/internal/storage"
)

// Task types handled by the worker.
const (
	TypeImageProcess  = "image:process"
	TypeInquiryNotify = "inquiry:notify"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// ImageTaskPayload identifies a freshly uploaded raw product image.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ProductID string `json:"product_id"`
}

// NewImageProcessTask creates a task to resize and attach an uploaded image.
func NewImageProcessTask(productID primitive.ObjectID, s3Key string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, ProductID: productID.Hex()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue("images")), nil
}

// InquiryNotifyPayload identifies an inquiry whose farmer should be emailed.
type InquiryNotifyPayload struct {
	InquiryID string `json:"inquiry_id"`
}

// NewInquiryNotifyTask creates a task to email the farmer about a new inquiry.
func NewInquiryNotifyTask(inquiryID primitive.ObjectID) (*asynq.Task, error) {
	payload, err := json.Marshal(InquiryNotifyPayload{InquiryID: inquiryID.Hex()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inquiry notify payload: %w", err)
	}
	return asynq.NewTask(TypeInquiryNotify, payload, asynq.Queue("default")), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	storageService storage.IS3Storage
	productService services.IProductService
	inquiryService services.IInquiryService
	userService    services.IUserService
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	productService services.IProductService,
	inquiryService services.IInquiryService,
	userService services.IUserService,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		storageService: storageService,
		productService: productService,
		inquiryService: inquiryService,
		userService:    userService,
	}
}

// SetupServer configures an Asynq server and its handler mux. The caller
// owns the lifecycle: srv.Run(mux) to start, srv.Shutdown() to stop.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	mux.HandleFunc(TypeInquiryNotify, processor.HandleInquiryNotifyTask)
	log.Println("Registered background task handlers (images & inquiry notifications).")

	return srv, mux
}

// --- Task Handlers ---

// HandleImageProcessTask downloads a raw product image from S3, resizes it
// down to the configured maximum dimension, uploads the processed copy and
// attaches its key to the product.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	productID, err := primitive.ObjectIDFromHex(payload.ProductID)
	if err != nil {
		log.Printf("Invalid ProductID in image task payload: %s", payload.ProductID)
		return fmt.Errorf("invalid product ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, ProductID=%s", payload.S3Key, payload.ProductID)

	body, _, err := p.storageService.GetObject(ctx, payload.S3Key)
	if err != nil {
		log.Printf("Error getting object %s from S3: %v", payload.S3Key, err)
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer body.Close()

	imgData, err := io.ReadAll(body)
	if err != nil {
		log.Printf("Error reading image object body for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("failed to read image data: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ImageMaxDimension)
	resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		log.Printf("Error encoding resized image %s: %v", payload.S3Key, err)
		return fmt.Errorf("failed to re-encode resized image: %w", err)
	}

	processedKey := processedKeyFor(payload.S3Key)
	if err := p.storageService.PutObject(ctx, processedKey, "image/jpeg", &buf); err != nil {
		log.Printf("Error uploading processed image %s to S3: %v", processedKey, err)
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	if err := p.productService.SetImage(ctx, productID, processedKey); err != nil {
		log.Printf("Error attaching image key %s to product %s: %v", processedKey, payload.ProductID, err)
		return fmt.Errorf("failed to update product with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, ProductID=%s", processedKey, payload.ProductID)
	return nil
}

// processedKeyFor derives the processed object key from a raw upload key.
// Raw keys look like products/<farmer>/<product>/raw/<name>; the processed
// copy replaces the raw segment. Keys without the segment get a suffix.
func processedKeyFor(rawKey string) string {
	const marker = "/raw/"
	if idx := strings.LastIndex(rawKey, marker); idx >= 0 {
		return rawKey[:idx] + "/processed/" + rawKey[idx+len(marker):]
	}
	return rawKey + ".processed"
}

// HandleInquiryNotifyTask emails the farmer who owns the inquired product.
func (p *TaskProcessor) HandleInquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal inquiry notify payload: %v: %w", err, asynq.SkipRetry)
	}

	inquiryID, err := primitive.ObjectIDFromHex(payload.InquiryID)
	if err != nil {
		log.Printf("Invalid InquiryID in notify payload: %s", payload.InquiryID)
		return fmt.Errorf("invalid inquiry ID in payload: %w", asynq.SkipRetry)
	}

	inquiry, err := p.inquiryService.FindByID(ctx, inquiryID)
	if err != nil {
		return fmt.Errorf("failed to load inquiry %s: %w", payload.InquiryID, err)
	}

	product, err := p.productService.FindByID(ctx, inquiry.ProductID)
	if err != nil {
		return fmt.Errorf("failed to load product %s of inquiry %s: %w",
			inquiry.ProductID.Hex(), payload.InquiryID, err)
	}

	farmer, err := p.userService.FindByID(ctx, product.FarmerID)
	if err != nil {
		return fmt.Errorf("failed to load farmer %s of product %s: %w",
			product.FarmerID.Hex(), product.ID.Hex(), err)
	}

	buyer, err := p.userService.FindByID(ctx, inquiry.BuyerID)
	if err != nil {
		return fmt.Errorf("failed to load buyer %s of inquiry %s: %w",
			inquiry.BuyerID.Hex(), payload.InquiryID, err)
	}

	subject := fmt.Sprintf("New inquiry about %s", product.Name)
	bodyText := fmt.Sprintf(
		"Hello %s,\r\n\r\n%s has sent an inquiry about your product %q:\r\n\r\n%s\r\n\r\nLog in to %s to respond.\r\n",
		farmer.Username, buyer.Username, product.Name, inquiry.Message, p.cfg.AppName,
	)
	rawMessage := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		p.cfg.SmtpFromAddress, farmer.Email, subject, bodyText,
	))

	if err := p.emailSender.Send(ctx, []string{farmer.Email}, subject, rawMessage); err != nil {
		return fmt.Errorf("failed to send inquiry notification to %s: %w", farmer.Email, err)
	}

	log.Printf("Inquiry notification sent: Inquiry=%s, Farmer=%s", payload.InquiryID, farmer.Email)
	return nil
}
