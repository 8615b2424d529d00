package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String(f.types[aws.ToString(in.Key)]),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_RoundTripWithPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := &S3{Client: fake, Bucket: "catalogs", Prefix: "images"}

	if err := s.Put(ctx, "img-7", strings.NewReader("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := fake.objects["images/img-7"]; !ok {
		t.Fatalf("object keys = %v, want images/img-7", fake.objects)
	}

	b, err := s.Get(ctx, "img-7")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(b.Data) != "jpeg" || b.ContentType != "image/jpeg" {
		t.Errorf("blob = %+v", b)
	}

	if err := s.Delete(ctx, "img-7"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "img-7"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestS3_GetError(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("throttled")
	s := &S3{Client: fake, Bucket: "b"}

	_, err := s.Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want wrapped transport error", err)
	}
	if _, err := s.Get(context.Background(), "../k"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Get() error = %v, want ErrInvalidKey", err)
	}
}
