package dynamo

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"monkey-registry/internal/domain/monkeys"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	keyPrefix    = "MONKEY#"
	speciesIndex = "species-index"
)

// Config son los parámetros explícitos de construcción del backend dynamo.
// Se arma en main a partir de la configuración del proceso.
type Config struct {
	Table           string
	Region          string
	Endpoint        string // opcional, para DynamoDB Local
	AccessKeyID     string // opcional; si falta, cadena de credenciales default
	SecretAccessKey string
}

// API es el subconjunto del cliente DynamoDB que usa el Store. Los tests lo
// implementan con un fake.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store persiste los registros en una tabla DynamoDB con clave compuesta
// PK/SK derivada del id. Es eventualmente consistente: un Put puede no ser
// visible de inmediato para un Scan de otro caller y no intentamos
// enmascararlo.
type Store struct {
	client API
	table  string
}

var _ monkeys.Repository = (*Store)(nil)

func New(client API, table string) *Store {
	return &Store{client: client, table: table}
}

// Open construye el cliente AWS y el store a partir de cfg.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Table == "" {
		return nil, errors.New("dynamo: table name required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return New(client, cfg.Table), nil
}

// item es la forma persistida: PK/SK compuestos más el registro plano.
type item struct {
	PK             string  `dynamodbav:"PK"`
	SK             string  `dynamodbav:"SK"`
	MonkeyID       string  `dynamodbav:"monkey_id"`
	Name           string  `dynamodbav:"name"`
	Species        string  `dynamodbav:"species"`
	AgeYears       int     `dynamodbav:"age_years"`
	FavouriteFruit string  `dynamodbav:"favourite_fruit"`
	LastCheckupAt  *string `dynamodbav:"last_checkup_at"`
	CreatedAt      string  `dynamodbav:"created_at"`
	UpdatedAt      string  `dynamodbav:"updated_at"`
}

func recordKey(id string) map[string]types.AttributeValue {
	k := keyPrefix + id
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: k},
		"SK": &types.AttributeValueMemberS{Value: k},
	}
}

func (s *Store) Get(ctx context.Context, id string) (monkeys.Monkey, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       recordKey(id),
	})
	if err != nil {
		return monkeys.Monkey{}, &monkeys.StorageError{Op: "dynamo get", Err: err}
	}
	if len(out.Item) == 0 {
		return monkeys.Monkey{}, monkeys.ErrNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return monkeys.Monkey{}, &monkeys.StorageError{Op: "decode item", Err: err}
	}
	return toMonkey(it), nil
}

func (s *Store) Put(ctx context.Context, m monkeys.Monkey) error {
	av, err := attributevalue.MarshalMap(toItem(m))
	if err != nil {
		return &monkeys.StorageError{Op: "encode item", Err: err}
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return &monkeys.StorageError{Op: "dynamo put", Err: err}
	}
	return nil
}

func (s *Store) Update(ctx context.Context, id string, f monkeys.UpdateFields) (monkeys.Monkey, error) {
	// name y species son palabras reservadas en DynamoDB, así que todos los
	// campos van con placeholder de nombre.
	sets := []string{"#updated_at = :updated_at"}
	names := map[string]string{"#updated_at": "updated_at"}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: f.UpdatedAt},
	}
	set := func(field string, v types.AttributeValue) {
		names["#"+field] = field
		values[":"+field] = v
		sets = append(sets, "#"+field+" = :"+field)
	}

	if f.Name != nil {
		set("name", &types.AttributeValueMemberS{Value: *f.Name})
	}
	if f.Species != nil {
		set("species", &types.AttributeValueMemberS{Value: string(*f.Species)})
	}
	if f.AgeYears != nil {
		set("age_years", &types.AttributeValueMemberN{Value: strconv.Itoa(*f.AgeYears)})
	}
	if f.FavouriteFruit != nil {
		set("favourite_fruit", &types.AttributeValueMemberS{Value: *f.FavouriteFruit})
	}
	if f.LastCheckupAt != nil {
		set("last_checkup_at", &types.AttributeValueMemberS{Value: *f.LastCheckupAt})
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       recordKey(id),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return monkeys.Monkey{}, monkeys.ErrNotFound
		}
		return monkeys.Monkey{}, &monkeys.StorageError{Op: "dynamo update", Err: err}
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return monkeys.Monkey{}, &monkeys.StorageError{Op: "decode item", Err: err}
	}
	return toMonkey(it), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          recordKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return &monkeys.StorageError{Op: "dynamo delete", Err: err}
	}
	if len(out.Attributes) == 0 {
		return monkeys.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, f monkeys.ListFilter) ([]monkeys.Monkey, error) {
	var raws []map[string]types.AttributeValue
	var err error
	if f.Species != "" {
		// species-index es solo una optimización de listado; la unicidad
		// nunca depende de este índice.
		raws, err = s.queryBySpecies(ctx, f.Species)
	} else {
		raws, err = s.scanAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]monkeys.Monkey, 0, len(raws))
	for _, raw := range raws {
		var it item
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return nil, &monkeys.StorageError{Op: "decode item", Err: err}
		}
		m := toMonkey(it)
		if f.Matches(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) queryBySpecies(ctx context.Context, species string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                aws.String(s.table),
			IndexName:                aws.String(speciesIndex),
			KeyConditionExpression:   aws.String("#species = :species"),
			ExpressionAttributeNames: map[string]string{"#species": "species"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":species": &types.AttributeValueMemberS{Value: species},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, &monkeys.StorageError{Op: "dynamo query", Err: err}
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (s *Store) scanAll(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.table),
			FilterExpression: aws.String("begins_with(PK, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":prefix": &types.AttributeValueMemberS{Value: keyPrefix},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, &monkeys.StorageError{Op: "dynamo scan", Err: err}
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// EnsureTable crea la tabla (con el GSI de species) si no existe y espera a
// que esté activa. Mantiene el comportamiento de aprovisionar al arrancar
// para el modo dev.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err == nil {
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return &monkeys.StorageError{Op: "describe table", Err: err}
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("species"), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(speciesIndex),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("species"), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return &monkeys.StorageError{Op: "create table", Err: err}
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, 2*time.Minute); err != nil {
		return &monkeys.StorageError{Op: "wait table", Err: err}
	}
	return nil
}

func toItem(m monkeys.Monkey) item {
	k := keyPrefix + m.ID
	return item{
		PK:             k,
		SK:             k,
		MonkeyID:       m.ID,
		Name:           m.Name,
		Species:        string(m.Species),
		AgeYears:       m.AgeYears,
		FavouriteFruit: m.FavouriteFruit,
		LastCheckupAt:  m.LastCheckupAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toMonkey(it item) monkeys.Monkey {
	return monkeys.Monkey{
		ID:             it.MonkeyID,
		Name:           it.Name,
		Species:        monkeys.Species(it.Species),
		AgeYears:       it.AgeYears,
		FavouriteFruit: it.FavouriteFruit,
		LastCheckupAt:  it.LastCheckupAt,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
	}
}
